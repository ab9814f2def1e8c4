package types

import "github.com/shopspring/decimal"

// Money renders a decimal amount rounded to cents as a JSON number.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
