// Package money holds the fixed-point helpers used for loan amounts.
package money

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits stored for monetary values.
const Places = 2

// ComputeAdvance returns amount*rate rounded half-to-even to Places digits.
// The multiplication itself is exact; only the final rounding is applied.
func ComputeAdvance(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(Places)
}

// Normalize rounds a monetary value to the stored precision.
func Normalize(d decimal.Decimal) decimal.Decimal { return d.RoundBank(Places) }

// Format renders d with thousands separators, e.g. "10,000,000.00".
func Format(d decimal.Decimal) string {
	s := d.Abs().StringFixedBank(Places)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// beyond int64, fall back to the plain representation
		return d.StringFixedBank(Places)
	}
	out := humanize.Comma(n) + "." + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
