package currency

import (
	"errors"
	"fmt"
	"strings"

	"cardpay_billing/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

var ErrUnknownRate = errors.New("no exchange rate for currency")

// RateTableConverter converts amounts with a static rate table. Rates are
// units of the currency per one unit of the base currency; the base itself
// is 1.
type RateTableConverter struct {
	base  string
	rates map[string]decimal.Decimal
}

var _ interfaces.ICurrencyConverter = (*RateTableConverter)(nil)

func NewRateTableConverter(base string, rates map[string]decimal.Decimal) (*RateTableConverter, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	table := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", code, rate)
		}
		table[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	if base != "" {
		table[base] = decimal.NewFromInt(1)
	}
	return &RateTableConverter{base: base, rates: table}, nil
}

// Convert returns amount expressed in `to`, rounded half away from zero to
// two decimal places.
func (c *RateTableConverter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount.Round(2), nil
	}

	fromRate, ok := c.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, to)
	}

	return amount.Mul(toRate).Div(fromRate).Round(2), nil
}
