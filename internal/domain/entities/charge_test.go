package entities

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCardInput_NeverFormatsRawData(t *testing.T) {
	card := CardInput{Number: "4111 1111 1111 1111", Expiration: "12-25", CVV: "123"}

	for _, out := range []string{fmt.Sprintf("%v", card), fmt.Sprintf("%+v", card), fmt.Sprintf("%#v", card), card.String()} {
		if strings.Contains(out, "4111111111111111") || strings.Contains(out, "4111 1111") {
			t.Fatalf("card number leaked: %s", out)
		}
		if strings.Contains(out, "123") || strings.Contains(out, "12-25") {
			t.Fatalf("cvv or expiration leaked: %s", out)
		}
		if !strings.Contains(out, "1111") {
			t.Fatalf("expected last four digits in %s", out)
		}
	}
}

func TestMaskCardNumber(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"123":                 "***",
		"4111-1111-1111-1111": "************1111",
	}
	for in, want := range cases {
		if got := MaskCardNumber(in); got != want {
			t.Fatalf("MaskCardNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPayment_SameCharge(t *testing.T) {
	order := Order{ID: 1, Amount: decimal.RequireFromString("100.00"), Currency: "USD"}
	meta := PaymentMeta{PayAmount: decimal.RequireFromString("100"), PayCurrency: "USD"}
	p := Payment{OrderID: 1, Amount: decimal.RequireFromString("100"), Currency: "USD", Meta: meta}

	if !p.SameCharge(order, meta) {
		t.Fatalf("expected same charge")
	}

	order.Amount = decimal.RequireFromString("120")
	if p.SameCharge(order, meta) {
		t.Fatalf("changed order total must not match")
	}
}
