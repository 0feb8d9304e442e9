package request

import "cardpay_billing/internal/domain/entities"

// ChargeRequest is the card form posted by the payment page. Fields are not
// marked required: blank fields are reported one by one by the charge flow.

type ChargeRequest struct {
	Number     string `json:"number" form:"number"`
	Expiration string `json:"expiration" form:"expiration"`
	CVV        string `json:"cvv" form:"cvv"`
}

func (r ChargeRequest) ToCardInput() entities.CardInput {
	return entities.CardInput{
		Number:     r.Number,
		Expiration: r.Expiration,
		CVV:        r.CVV,
	}
}

// String keeps the card out of request dumps.
func (r ChargeRequest) String() string {
	return r.ToCardInput().String()
}
