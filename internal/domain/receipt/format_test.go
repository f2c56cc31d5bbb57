package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTaxID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"cpf digits", "12345678901", "123.456.789-01"},
		{"cpf punctuated", "123.456.789-01", "123.456.789-01"},
		{"cnpj digits", "12345678000195", "12.345.678/0001-95"},
		{"cnpj with spaces", " 12 345 678 0001 95 ", "12.345.678/0001-95"},
		{"too short", "1234", "1234"},
		{"twelve digits", "123456789012", "123456789012"},
		{"letters", "abc", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTaxID(tt.raw))
		})
	}
}

func TestFormatSaleSequence(t *testing.T) {
	tests := []struct {
		name string
		ref  SaleRef
		want string
	}{
		{"single digit", SaleNumber(7), "007"},
		{"two digits", SaleNumber(42), "042"},
		{"three digits", SaleNumber(123), "123"},
		{"truncated to low digits", SaleNumber(1234), "234"},
		{"zero", SaleNumber(0), "000"},
		{"label", SaleText("Sale #42"), "042"},
		{"digit runs joined", SaleText("A1-B2"), "012"},
		{"long label", SaleText("PDV-2024-0099"), "099"},
		{"leading zeros", SaleText("0005"), "005"},
		{"no digits", SaleText("abc"), "000"},
		{"empty text", SaleText(""), "000"},
		{"absent", SaleRef{}, "000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSaleSequence(tt.ref))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		want   string
	}{
		{"integer", AmountFromInt(3), "3.00"},
		{"absent", Amount{}, "0.00"},
		{"half rounds up", AmountFromFloat(2.005), "2.01"},
		{"below half", AmountFromFloat(2.004), "2.00"},
		{"negative half", AmountFromFloat(-2.005), "-2.01"},
		{"no grouping", AmountFromFloat(1234567.5), "1234567.50"},
		{"numeric string", ParseAmount("19.9"), "19.90"},
		{"comma decimal", ParseAmount("19,9"), "19.90"},
		{"non numeric string", ParseAmount("abc"), "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.amount))
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", FormatQuantity(AmountFromInt(2)))
	assert.Equal(t, "1.5", FormatQuantity(AmountFromFloat(1.5)))
	assert.Equal(t, "0", FormatQuantity(Amount{}))
}
