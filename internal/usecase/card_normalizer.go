package usecase

import (
	"strconv"
	"strings"

	"cardpay_billing/internal/domain/entities"
)

// NormalizeCard prepares validated card input for the gateway. It does not
// re-validate formats: whatever the processor rejects comes back as a
// transaction error.
func NormalizeCard(card entities.CardInput) entities.GatewayCard {
	return entities.GatewayCard{
		Number:     keep(card.Number, false),
		Expiration: keep(card.Expiration, true),
		CVV:        strconv.Itoa(leadingInt(card.CVV)),
	}
}

func keep(s string, hyphen bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (hyphen && r == '-') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leadingInt parses the leading decimal digits of s after optional
// whitespace and sign; it returns 0 when there are none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
