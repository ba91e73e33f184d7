// Package money provides a fixed-point currency amount with two decimal places.
//
// Amounts are backed by shopspring/decimal and quantized after every operation,
// so running balances never pick up binary floating point drift.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal digits every amount carries.
const Scale = 2

// ErrInvalid is returned when input cannot be parsed as an amount.
var ErrInvalid = errors.New("invalid amount")

// Money is an amount quantized to Scale decimal places. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Money{}

// New quantizes d to two decimals, rounding half away from zero.
func New(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// MustParse is Parse for constants and tests. It panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse reads a decimal string such as "4.5" or "-12.345".
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return New(d), nil
}

// ParsePositive is Parse that also rejects zero and negative amounts.
func ParsePositive(s string) (Money, error) {
	m, err := Parse(s)
	if err != nil {
		return Zero, err
	}
	if !m.IsPositive() {
		return Zero, fmt.Errorf("%w: %q is not positive", ErrInvalid, s)
	}
	return m, nil
}

// FromAny accepts the shapes a decoded request may carry: strings, integers,
// floats, json.Number and Money itself.
func FromAny(v any) (Money, error) {
	switch x := v.(type) {
	case Money:
		return x, nil
	case string:
		return Parse(x)
	case json.Number:
		return Parse(x.String())
	case int:
		return New(decimal.NewFromInt(int64(x))), nil
	case int64:
		return New(decimal.NewFromInt(x)), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Zero, ErrInvalid
		}
		return New(decimal.NewFromFloat(x)), nil
	case float32:
		return FromAny(float64(x))
	default:
		return Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalid, v)
	}
}

// Sum adds all amounts at full precision and quantizes once.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.d)
	}
	return New(total)
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return New(m.d.Add(o.d)) }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return New(m.d.Sub(o.d)) }

// Cmp compares m and o and returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports whether m and o are the same amount.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// LessThan reports whether m < o.
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// IsZero reports whether m is 0.00.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool { return m.d.Sign() > 0 }

// Float64 is for metrics and other lossy consumers only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String formats with exactly two decimals, e.g. "4.50".
func (m Money) String() string { return m.d.StringFixed(Scale) }

// MarshalJSON writes a bare JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
