package receipt

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SaleRefKind tells which shape a sale reference arrived in
type SaleRefKind int

const (
	SaleRefAbsent SaleRefKind = iota
	SaleRefNumber
	SaleRefText
)

// SaleRef identifies the sale being printed. Checkout clients send either
// the numeric id or a label such as "Sale #42".
type SaleRef struct {
	kind   SaleRefKind
	number int64
	text   string
}

// SaleNumber builds a numeric sale reference
func SaleNumber(n int64) SaleRef {
	return SaleRef{kind: SaleRefNumber, number: n}
}

// SaleText builds a textual sale reference
func SaleText(s string) SaleRef {
	return SaleRef{kind: SaleRefText, text: s}
}

// Kind returns the shape of the reference
func (r SaleRef) Kind() SaleRefKind {
	return r.kind
}

// Number returns the numeric value; only meaningful for SaleRefNumber
func (r SaleRef) Number() int64 {
	return r.number
}

// Text returns the raw label; only meaningful for SaleRefText
func (r SaleRef) Text() string {
	return r.text
}

// String returns the reference as it was supplied
func (r SaleRef) String() string {
	switch r.kind {
	case SaleRefNumber:
		return strconv.FormatInt(r.number, 10)
	case SaleRefText:
		return r.text
	}
	return ""
}

// MarshalJSON writes the reference in its original shape
func (r SaleRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case SaleRefNumber:
		return []byte(strconv.FormatInt(r.number, 10)), nil
	case SaleRefText:
		return json.Marshal(r.text)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts integers, strings and null. Fractional or out of
// range numbers are kept as text so their digits still count.
func (r *SaleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*r = SaleRef{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = SaleText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	if n, err := num.Int64(); err == nil {
		*r = SaleNumber(n)
		return nil
	}
	*r = SaleText(strings.TrimSpace(num.String()))
	return nil
}
