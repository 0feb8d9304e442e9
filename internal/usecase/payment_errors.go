package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderAmount = errors.New("invalid order amount")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentAlreadyPaid = errors.New("payment already paid")
	ErrStatusNotPayable   = errors.New("order status does not allow payment")
	ErrChargeInProgress   = errors.New("another charge attempt is in progress")
	ErrPaymentPending     = errors.New("payment is held for review by the gateway")
	ErrTransaction        = errors.New("transaction error")
	ErrReconciliation     = errors.New("transaction ok, order reconciliation failed")
	ErrMissingTransaction = errors.New("missing gateway transaction id")
)

// CardField names a card input field.
type CardField string

const (
	CardFieldNumber     CardField = "number"
	CardFieldExpiration CardField = "expiration"
	CardFieldCVV        CardField = "cvv"
)

// ErrMissingCardField matches any *MissingFieldError through errors.Is.
var ErrMissingCardField = errors.New("missing card field")

// MissingFieldError reports a required card field that was left empty.
type MissingFieldError struct {
	Field CardField
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing card %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingCardField
}

var (
	ErrMissingCardNumber = &MissingFieldError{Field: CardFieldNumber}
	ErrMissingExpiration = &MissingFieldError{Field: CardFieldExpiration}
	ErrMissingCvv        = &MissingFieldError{Field: CardFieldCVV}
)

// ReconciliationError means the gateway captured the money but the
// bookkeeping that follows failed. It carries what an operator needs to
// finish the job by hand; the charge must not be attempted again.
type ReconciliationError struct {
	PaymentID     string
	OrderID       int64
	TransactionID string
	Err           error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile payment_id=%s order_id=%d transaction_id=%s: %v", e.PaymentID, e.OrderID, e.TransactionID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliation
}
