package esl

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FormatPrice rounds a price to two decimals and renders it the way the
// vendor expects: a bare integer when the rounded value has no fractional
// part, a two-decimal number otherwise. Values rounding to zero come out
// as 0, including tiny negatives.
func FormatPrice(p decimal.Decimal) json.Number {
	rounded := p.Round(2)
	if rounded.IsInteger() {
		return json.Number(rounded.StringFixed(0))
	}
	return json.Number(rounded.StringFixed(2))
}
