package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Fixed is a two-decimal fixed-point number (prices, amounts, percentages).
// It is persisted as an integer count of hundredths so that SQL arithmetic on
// running totals stays exact on every supported driver.
type Fixed struct {
	d decimal.Decimal
}

func FixedFromHundredths(n int64) Fixed {
	return Fixed{d: decimal.New(n, -2)}
}

// ParseFixed parses a decimal string, rejecting more than two fractional digits.
func ParseFixed(s string) (Fixed, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Fixed{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Exponent() < -2 && !d.Equal(d.Truncate(2)) {
		return Fixed{}, fmt.Errorf("invalid decimal %q: more than 2 decimal places", s)
	}
	return Fixed{d: d.Truncate(2)}, nil
}

func MustFixed(s string) Fixed {
	f, err := ParseFixed(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Fixed) Decimal() decimal.Decimal { return f.d }

func (f Fixed) Hundredths() int64 { return f.d.Shift(2).IntPart() }

func (f Fixed) String() string { return f.d.StringFixed(2) }

func (f Fixed) Add(o Fixed) Fixed { return Fixed{d: f.d.Add(o.d)} }

func (f Fixed) Sub(o Fixed) Fixed { return Fixed{d: f.d.Sub(o.d)} }

func (f Fixed) MulInt(n int) Fixed { return Fixed{d: f.d.Mul(decimal.NewFromInt(int64(n)))} }

func (f Fixed) Equal(o Fixed) bool { return f.d.Equal(o.d) }

func (f Fixed) IsZero() bool { return f.d.IsZero() }

func (f Fixed) IsNegative() bool { return f.d.IsNegative() }

func (f Fixed) IsPositive() bool { return f.d.IsPositive() }

// PercentOf returns rate percent of f, rounded half-to-even to two places.
// Commission and benefit figures all go through here so they agree.
func (f Fixed) PercentOf(rate Fixed) Fixed {
	return Fixed{d: f.d.Mul(rate.d).Div(hundred).RoundBank(2)}
}

func (f Fixed) Value() (driver.Value, error) {
	return f.Hundredths(), nil
}

func (f *Fixed) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Fixed{}
	case int64:
		*f = FixedFromHundredths(v)
	case []byte:
		return f.scanString(string(v))
	case string:
		return f.scanString(v)
	default:
		return fmt.Errorf("model.Fixed: cannot scan %T", src)
	}
	return nil
}

func (f *Fixed) scanString(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("model.Fixed: cannot scan %q: %w", s, err)
	}
	*f = FixedFromHundredths(n)
	return nil
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fixed) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("model.Fixed: %w", err)
		}
		s = n.String()
	}
	parsed, err := ParseFixed(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
