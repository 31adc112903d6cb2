package core

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Decimal is an arbitrary-precision decimal that reads and writes plain JSON numbers.
// Quoted numeric strings are accepted on decode.
type Decimal struct {
	apd.Decimal
}

// NewDecimal returns coeff * 10^exponent.
func NewDecimal(coeff int64, exponent int32) Decimal {
	var d Decimal
	d.SetFinite(coeff, exponent)
	return d
}

// ParseDecimal parses a decimal from its string form.
func ParseDecimal(s string) (Decimal, error) {
	var d Decimal
	if _, _, err := d.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// MustDecimal is like ParseDecimal but panics on error. Intended for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Equal reports whether d and other represent the same number.
func (d Decimal) Equal(other Decimal) bool {
	return d.Cmp(&other.Decimal) == 0
}

// MarshalJSON implements json.Marshaler for Decimal.
func (d Decimal) MarshalJSON() ([]byte, error) {
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("cannot encode non-finite decimal %s", d.String())
	}
	return []byte(d.Text('f')), nil
}

// UnmarshalJSON implements json.Unmarshaler for Decimal.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.Decimal = apd.Decimal{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	if _, _, err := d.SetString(string(data)); err != nil {
		return fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	return nil
}
