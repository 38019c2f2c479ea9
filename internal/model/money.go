package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents).
type Money int64

// MaxAmount bounds a single transaction amount (100 billion units).
const MaxAmount Money = 10_000_000_000_000

// ErrInvalidAmount is returned when an amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Cents builds a Money from whole units and cents, e.g. Cents(12, 34) is 12.34.
func Cents(units, cents int64) Money {
	return Money(units*100 + cents)
}

// Units returns a whole-unit amount as Money.
func Units(n int64) Money {
	return Money(n * 100)
}

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount with two decimals, e.g. "-12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount in major units. Only for display ratios.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// ParseMoney parses a decimal amount in major units. Both "12.34" and
// "12,34" are accepted. When both separators appear the last one is the
// decimal point, so "1.234,56" and "1,234.56" are the same amount. A lone
// comma followed by exactly three digits ("12,345") is ambiguous and
// rejected. Extra precision is rounded half away from zero.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 == 3 {
			return 0, fmt.Errorf("%w: %q is ambiguous", ErrInvalidAmount, s)
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal to Money, rounding to cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Money(cents.IntPart()), nil
}

// FromFloat converts a binary float in major units to Money.
func FromFloat(f float64) (Money, error) {
	return FromDecimal(decimal.NewFromFloat(f))
}
