package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CardInput is the card data typed by the payer. It lives for one charge
// call and must never be persisted or logged.
type CardInput struct {
	Number     string
	Expiration string
	CVV        string
}

// String masks the card so accidental %v / %s formatting cannot leak it.
func (c CardInput) String() string {
	return fmt.Sprintf("card(number=%s expiration=%s cvv=%s)", MaskCardNumber(c.Number), mask(c.Expiration), mask(c.CVV))
}

func (c CardInput) GoString() string {
	return c.String()
}

// MaskCardNumber keeps the last four digits of a card number.
func MaskCardNumber(number string) string {
	var digits []rune
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return "***"
}

// GatewayCard is the normalized card handed to a gateway adapter.
type GatewayCard struct {
	Number     string
	Expiration string
	CVV        string
}

func (c GatewayCard) String() string {
	return fmt.Sprintf("card(number=%s)", MaskCardNumber(c.Number))
}

func (c GatewayCard) GoString() string {
	return c.String()
}

// GatewayChargeRequest is one authorize-and-capture submission.
//
// InvoiceNumber and RefID are derived from the payment id so the processor
// can correlate and deduplicate retried submissions.
type GatewayChargeRequest struct {
	InvoiceNumber string
	RefID         string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	Card          GatewayCard
}

// OutcomeResult is the normalized result of a gateway call.
type OutcomeResult string

const (
	OutcomeOk           OutcomeResult = "ok"
	OutcomeDeclined     OutcomeResult = "declined"
	OutcomeGatewayError OutcomeResult = "gateway_error"
	OutcomeNoResponse   OutcomeResult = "no_response"
	// OutcomePending: the gateway took the charge but holds it for review.
	// It must not be retried.
	OutcomePending OutcomeResult = "pending"
)

// ChargeOutcome is what a gateway adapter returns for one call. Detail is
// diagnostic text for logs only.
type ChargeOutcome struct {
	Result        OutcomeResult
	TransactionID string
	Detail        string
}

func (o ChargeOutcome) Succeeded() bool {
	return o.Result == OutcomeOk
}
