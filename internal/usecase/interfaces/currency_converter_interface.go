package interfaces

import "github.com/shopspring/decimal"

type ICurrencyConverter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}
