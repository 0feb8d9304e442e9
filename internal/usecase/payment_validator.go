package usecase

import (
	"strings"

	"cardpay_billing/internal/domain/entities"
)

// ValidatePayment runs the pre-charge checks in order and returns the first
// failure. The caller has already resolved the payment.
//
// Status checks come before card field checks, so a paid payment or order
// reports ErrPaymentAlreadyPaid whatever the card input looks like. A
// payment with a transaction held for review is not charged again.
func ValidatePayment(p entities.Payment, state entities.OrderState, card entities.CardInput) error {
	if p.Paid || state.Order.Paid {
		return ErrPaymentAlreadyPaid
	}
	if p.PendingTransactionID != "" {
		return ErrPaymentPending
	}
	if !state.StatusPayable {
		return ErrStatusNotPayable
	}
	if isBlank(card.Number) {
		return ErrMissingCardNumber
	}
	if isBlank(card.Expiration) {
		return ErrMissingExpiration
	}
	if isBlank(card.CVV) {
		return ErrMissingCvv
	}
	return nil
}

// isBlank treats "0" as missing, the way the card form has always been
// checked.
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "0"
}
