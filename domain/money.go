package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MaxAmount bounds any single price or total so cent values and their sums
// stay far inside int64.
var MaxAmount = decimal.New(1, 12)

// InAmountRange reports whether |amount| <= MaxAmount.
func InAmountRange(amount decimal.Decimal) bool {
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// Cents converts an amount to integer minor units, rounding half away from zero.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// HasCentPrecision reports whether amount needs no more than two fractional digits.
func HasCentPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

// LineTotal returns quantity * unitPrice.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}
