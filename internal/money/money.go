// Package money generates and rounds fixture amounts.
//
// All amounts are shopspring decimals rounded to cents, half away from zero.
// Random draws come from an injected source so a fixed seed reproduces the
// same amounts on every run.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept for currency amounts
const Places = 2

// maxDraws bounds RandomPositive redraws
const maxDraws = 64

// ErrNoPositiveAmount is returned when no positive amount could be drawn
var ErrNoPositiveAmount = errors.New("money: could not draw a positive amount")

// Source is the subset of *rand.Rand used for amount generation
type Source interface {
	Float64() float64
}

// Round rounds d to cents, half away from zero
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Random returns upper * src.Float64() rounded to cents
func Random(src Source, upper float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(upper * src.Float64()))
}

// RandomPositive draws like Random but redraws until the rounded amount is positive
func RandomPositive(src Source, upper float64) (decimal.Decimal, error) {
	if upper <= 0 {
		return decimal.Zero, fmt.Errorf("%w: upper bound %v", ErrNoPositiveAmount, upper)
	}
	for i := 0; i < maxDraws; i++ {
		if amount := Random(src, upper); amount.IsPositive() {
			return amount, nil
		}
	}
	return decimal.Zero, ErrNoPositiveAmount
}

// MustParse parses a literal amount, panicking on malformed input
func MustParse(s string) decimal.Decimal {
	return Round(decimal.RequireFromString(s))
}

// Sum adds amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with exactly two decimals, as the reports show it
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
