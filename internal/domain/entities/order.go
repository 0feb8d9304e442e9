package entities

import "github.com/shopspring/decimal"

// Order is owned by the host commerce platform and is read-only here,
// except for the paid flag set through reconciliation.
type Order struct {
	ID       int64           `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	StatusID int64           `json:"status_id"`
	Paid     bool            `json:"paid"`
}

// OrderState is an order snapshot plus whether its current status allows
// payment. Validation runs against it without further lookups.
type OrderState struct {
	Order         Order
	StatusPayable bool
}
