package domain

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, half away from zero. Every local
// amount that enters a balance check goes through here first, so the
// zero-sum invariant is evaluated on values the ledger can actually store.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsZero2 reports whether d rounds to zero at ledger precision.
func IsZero2(d decimal.Decimal) bool {
	return Round2(d).IsZero()
}

// LocalValue converts a foreign amount to the functional currency at the
// given rate, rounded to ledger precision.
func LocalValue(amount, rate decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(rate))
}
