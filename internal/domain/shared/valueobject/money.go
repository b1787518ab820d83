package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places money is stored with
const MoneyScale int32 = 2

// MinimumBillAmount is the smallest total a bill may carry
var MinimumBillAmount = decimal.New(1, -MoneyScale)

// LineTotal returns quantity * unitPrice rounded to the money scale
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(MoneyScale)
}

// Sum adds amounts exactly
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ParseAmount parses a money string and rejects more precision than MoneyScale
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, MoneyScale)
	}
	return d, nil
}

// Max returns the greater of a and b
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// NonNegative clamps a at zero
func NonNegative(a decimal.Decimal) decimal.Decimal {
	return Max(a, decimal.Zero)
}
