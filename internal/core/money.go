// Package core holds the ledger domain model: methods, transactions,
// per-method deltas and the exact-decimal money representation.
//
// All arithmetic in the snapshot cascade runs on integer cents; decimal
// parsing and formatting happen only at the input/output boundary.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is an exact amount in cents. Signed when representing balances and
// deltas; transaction amounts must be strictly positive.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string to a positive Money value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// half-up rounds anything beyond two fractional digits. Zero, negative and
// malformed inputs are rejected.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	v := cents.IntPart()
	if !decimal.NewFromInt(v).Equal(cents) {
		// Shift overflowed int64.
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: v}, nil
}

func normalizeDecimal(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t':
		case ',':
			out = append(out, '.')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount with exactly two fractional digits ("159.00",
// "-0.01"). Used everywhere a balance or delta reaches the user.
func (m Money) String() string {
	return FormatCents(m.Cents)
}

// FormatCents renders a signed cent count as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
