package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an optional monetary or quantity value.
// The zero value is an absent amount.
type Amount struct {
	value   decimal.Decimal
	present bool
}

// NewAmount wraps a decimal as a present amount
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d, present: true}
}

// AmountFromFloat builds a present amount from a float
func AmountFromFloat(f float64) Amount {
	return NewAmount(decimal.NewFromFloat(f))
}

// AmountFromInt builds a present amount from an integer
func AmountFromInt(n int64) Amount {
	return NewAmount(decimal.NewFromInt(n))
}

// ParseAmount coerces a string to an amount. Blank or non-numeric input
// yields an absent amount.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// IsPresent reports whether the amount carries a numeric value
func (a Amount) IsPresent() bool {
	return a.present
}

// Decimal returns the value, or zero when absent
func (a Amount) Decimal() decimal.Decimal {
	if !a.present {
		return decimal.Zero
	}
	return a.value
}

// IsPositive reports whether the amount is present and greater than zero
func (a Amount) IsPositive() bool {
	return a.present && a.value.IsPositive()
}

// IsTruthy reports whether the amount is present and non-zero
func (a Amount) IsTruthy() bool {
	return a.present && !a.value.IsZero()
}

// Or returns a when present, otherwise fallback
func (a Amount) Or(fallback Amount) Amount {
	if a.present {
		return a
	}
	return fallback
}

// String renders the amount for display; absent amounts render as "0.00"
func (a Amount) String() string {
	return FormatCurrency(a)
}

// MarshalJSON writes a number, or null when absent
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
// Strings that do not parse as numbers decode to an absent amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Amount{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ParseAmount(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = NewAmount(d)
	return nil
}
