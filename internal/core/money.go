// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals with at most two fractional digits. The
// store keeps them as integer cents, so every value crossing that boundary
// goes through ToCents/FromCents.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrInvalidArgument)

// ErrAmountOutOfRange is returned for amounts and balances above MaxAmount.
var ErrAmountOutOfRange = fmt.Errorf("%w: amount exceeds %s", ErrInvalidArgument, MaxAmount.StringFixed(2))

// MaxAmount bounds every amount and balance so cent values always fit in int64.
var MaxAmount = decimal.New(1, 15)

// ParseAmount converts a decimal string to an amount with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects non-positive amounts, amounts finer than a cent and
// amounts above MaxAmount.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) {
		return ErrAmountOutOfRange
	}
	return nil
}

// ToCents converts an amount to integer cents. Sub-cent digits are truncated.
// Values whose cents do not fit in int64 are refused.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	return cents.Int64(), nil
}

// FromCents converts integer cents back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
