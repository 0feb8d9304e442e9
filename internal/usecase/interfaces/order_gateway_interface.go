package interfaces

import (
	"context"

	"cardpay_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// IOrderGateway is the narrow contract with the host commerce platform.
//
// GetOrder returns a zero Order (ID == 0) when the order does not exist.
// MarkPaid must be idempotent per paymentID.
type IOrderGateway interface {
	GetOrder(ctx context.Context, orderID int64) (entities.Order, error)
	IsStatusPayable(ctx context.Context, statusID int64) (bool, error)
	MarkPaid(ctx context.Context, orderID int64, paymentID string, amount decimal.Decimal) error
}
