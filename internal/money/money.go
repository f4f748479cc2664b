// Package money parses and formats integer currency amounts.
//
// Currency is integer-only. Parse truncates fractional input toward zero,
// ParseWhole rejects it, and formatting always renders two decimal places.
// Values beyond int64 are invalid.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol prefixes every rendered amount.
const Symbol = "₹"

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotPositive   = errors.New("amount must be positive")
	ErrFractional    = errors.New("amount must be a whole number")
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Parse converts user input to a positive whole amount. "12.9" yields 12.
func Parse(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return whole(d.Truncate(0), s)
}

// ParseWhole is Parse without truncation: "60.9" is rejected.
func ParseWhole(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q", ErrFractional, s)
	}
	return whole(d, s)
}

func whole(d decimal.Decimal, s string) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrNotPositive
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return d.IntPart(), nil
}

// Format renders the magnitude of amount, e.g. 50 → "₹50.00".
func Format(amount int64) string {
	if amount < 0 {
		amount = -amount
	}
	return Symbol + decimal.New(amount, 0).StringFixed(2)
}

// FormatSigned renders a share with an explicit sign for credits, e.g. "+60.00" or "-40.00".
func FormatSigned(amount int64) string {
	s := decimal.New(amount, 0).StringFixed(2)
	if amount > 0 {
		return "+" + s
	}
	return s
}
