package interfaces

import (
	"context"

	"cardpay_billing/internal/domain/entities"
)

// IPaymentGateway abstracts the remote card processor (Authorize.Net,
// Mercado Pago, ...).
//
// Implementations never return transport failures as Go errors: every
// call ends in a normalized ChargeOutcome.
type IPaymentGateway interface {
	AuthorizeAndCapture(ctx context.Context, req entities.GatewayChargeRequest) entities.ChargeOutcome
}
