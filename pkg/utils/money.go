package utils

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxAmount is the largest amount a NUMERIC(12,2) column holds. Prices,
// payments and wallet balances never exceed it.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// WithinLimit reports whether d fits the money columns.
func WithinLimit(d decimal.Decimal) bool {
	return d.LessThanOrEqual(MaxAmount)
}

// ParseMoney parses a decimal amount, rounding to two places.
func ParseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// MinorUnits converts an amount to the smallest currency unit (paise for INR).
// Amounts up to MaxAmount fit an int64.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

