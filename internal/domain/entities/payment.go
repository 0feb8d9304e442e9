package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMeta holds what is actually sent to the gateway.
//
// PayAmount/PayCurrency differ from the order-native Amount/Currency when
// the order currency is not accepted by the gateway and a conversion
// currency is configured.
type PaymentMeta struct {
	PayAmount   decimal.Decimal `json:"pay_amount"`
	PayCurrency string          `json:"pay_currency"`
}

// Payment binds an order to an amount/currency pair and to one successful
// charge at most. It is identified publicly by Hash only.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (hash-index): hash
//   - GSI2 (order_id-index): order_id
//
// Once Paid is true the record is never modified again. A non-empty
// PendingTransactionID means the gateway accepted a charge but holds it for
// review; such a payment is not charged again until reconciled.
type Payment struct {
	ID                   string          `json:"id"`
	OrderID              int64           `json:"order_id"`
	Hash                 string          `json:"-"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Meta                 PaymentMeta     `json:"meta"`
	Paid                 bool            `json:"paid"`
	PaidAt               time.Time       `json:"paid_at"`
	TransactionID        string          `json:"transaction_id,omitempty"`
	PendingTransactionID string          `json:"pending_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// SameCharge reports whether p would charge exactly what o and meta describe.
func (p Payment) SameCharge(o Order, meta PaymentMeta) bool {
	return p.OrderID == o.ID &&
		p.Amount.Equal(o.Amount) &&
		p.Currency == o.Currency &&
		p.Meta.PayAmount.Equal(meta.PayAmount) &&
		p.Meta.PayCurrency == meta.PayCurrency
}

// PaymentLink is the result of asking for a payment link.
//
// Payable=false means the order cannot be paid through this gateway
// (unsupported currency and no conversion configured). It is not an error
// and carries no URL.
type PaymentLink struct {
	Payable     bool   `json:"payable"`
	URL         string `json:"payment_url,omitempty"`
	PaymentHash string `json:"payment_hash,omitempty"`
	PaymentID   string `json:"-"`
}
