package response

import (
	"time"

	"cardpay_billing/internal/domain/entities"
)

type PaymentLinkResponse struct {
	Payable     bool   `json:"payable"`
	PaymentURL  string `json:"payment_url,omitempty"`
	PaymentHash string `json:"payment_hash,omitempty"`
}

func FromPaymentLink(l entities.PaymentLink) PaymentLinkResponse {
	if !l.Payable {
		return PaymentLinkResponse{}
	}
	return PaymentLinkResponse{
		Payable:     true,
		PaymentURL:  l.URL,
		PaymentHash: l.PaymentHash,
	}
}

// PaymentResponse is what the payment page shows. It never carries card data
// or the internal payment id.
type PaymentResponse struct {
	OrderID       int64      `json:"order_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	PayAmount     string     `json:"pay_amount"`
	PayCurrency   string     `json:"pay_currency"`
	Paid          bool       `json:"paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	res := PaymentResponse{
		OrderID:     p.OrderID,
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		PayAmount:   p.Meta.PayAmount.StringFixed(2),
		PayCurrency: p.Meta.PayCurrency,
		Paid:        p.Paid,
	}
	if p.Paid {
		paidAt := p.PaidAt
		res.PaidAt = &paidAt
		res.TransactionID = p.TransactionID
	}
	return res
}
