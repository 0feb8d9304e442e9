package usecase

import (
	"errors"
	"testing"

	"cardpay_billing/internal/domain/entities"
)

func TestValidatePayment(t *testing.T) {
	card := entities.CardInput{Number: "4111111111111111", Expiration: "12-30", CVV: "123"}
	payable := entities.OrderState{Order: entities.Order{ID: 1}, StatusPayable: true}

	cases := []struct {
		name    string
		payment entities.Payment
		state   entities.OrderState
		card    entities.CardInput
		want    error
	}{
		{name: "valid", payment: entities.Payment{ID: "p1"}, state: payable, card: card},
		{name: "already paid", payment: entities.Payment{ID: "p1", Paid: true}, state: payable, card: card, want: ErrPaymentAlreadyPaid},
		{name: "already paid wins over missing fields", payment: entities.Payment{ID: "p1", Paid: true}, state: payable, want: ErrPaymentAlreadyPaid},
		{name: "order already paid", payment: entities.Payment{ID: "p1"}, state: entities.OrderState{Order: entities.Order{ID: 1, Paid: true}, StatusPayable: true}, card: entities.CardInput{Expiration: "12-30"}, want: ErrPaymentAlreadyPaid},
		{name: "status not payable", payment: entities.Payment{ID: "p1"}, state: entities.OrderState{}, card: card, want: ErrStatusNotPayable},
		{name: "status wins over missing fields", payment: entities.Payment{ID: "p1"}, state: entities.OrderState{}, want: ErrStatusNotPayable},
		{name: "missing number", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Expiration: "12-30", CVV: "1"}, want: ErrMissingCardNumber},
		{name: "blank number", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "   ", Expiration: "12-30", CVV: "1"}, want: ErrMissingCardNumber},
		{name: "number reported before expiration", payment: entities.Payment{ID: "p1"}, state: payable, want: ErrMissingCardNumber},
		{name: "missing expiration", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "4111", CVV: "1"}, want: ErrMissingExpiration},
		{name: "missing cvv", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "4111", Expiration: "12-30"}, want: ErrMissingCvv},
		{name: "zero cvv counts as missing", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "4111", Expiration: "12-30", CVV: " 0 "}, want: ErrMissingCvv},
		{name: "zero number counts as missing", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "0", Expiration: "12-30", CVV: "123"}, want: ErrMissingCardNumber},
		{name: "cvv starting with zero is kept", payment: entities.Payment{ID: "p1"}, state: payable, card: entities.CardInput{Number: "4111", Expiration: "12-30", CVV: "012"}},
		{name: "pending review", payment: entities.Payment{ID: "p1", PendingTransactionID: "tx-9"}, state: payable, card: card, want: ErrPaymentPending},
		{name: "paid wins over pending review", payment: entities.Payment{ID: "p1", Paid: true, PendingTransactionID: "tx-9"}, state: payable, card: card, want: ErrPaymentAlreadyPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePayment(tc.payment, tc.state, tc.card)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMissingFieldError_MatchesSentinel(t *testing.T) {
	var err error = ErrMissingExpiration
	if !errors.Is(err, ErrMissingCardField) {
		t.Fatalf("expected ErrMissingCardField match")
	}
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != CardFieldExpiration {
		t.Fatalf("expected expiration field, got %v", mf)
	}
	if errors.Is(ErrMissingCvv, ErrMissingCardNumber) {
		t.Fatalf("different fields must not match each other")
	}
}

func TestReconciliationError(t *testing.T) {
	cause := errors.New("db down")
	err := error(&ReconciliationError{PaymentID: "p1", OrderID: 7, TransactionID: "tx-1", Err: cause})

	if !errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected ErrReconciliation match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if got := err.Error(); got != "reconcile payment_id=p1 order_id=7 transaction_id=tx-1: db down" {
		t.Fatalf("unexpected message %q", got)
	}
}
