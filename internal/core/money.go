// Package core provides the sales domain records and money handling.
//
// Money is kept as integer cents so that totals never drift; statistics
// that need fractional precision convert through Decimal.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an exact amount in cents.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is allowed; negative
// values are not.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseCents reads the integer-cents form used by the source tables ("1200"
// is 12.00). A value carrying a decimal separator is read as units instead.
func ParseCents(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, ".,") {
		c, err := ParseDecimalToCents(s)
		if err != nil {
			return Money{}, err
		}
		return Money{Cents: c}, nil
	}
	if s == "" || !allDigits(s) {
		return Money{}, ErrInvalidAmount
	}
	c, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: c}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int64) Money {
	return Money{Cents: m.Cents * qty}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in units with two decimal places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount as units with two decimals ("12.34").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MoneyFromDecimal converts a unit amount into cents, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// MarshalJSON renders the amount as a quoted unit string ("12.34").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare unit amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(strings.Trim(string(data), `"`))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}
