package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receipt/internal/domain/receipt"
)

func TestSectionBuilders(t *testing.T) {
	tests := []struct {
		name    string
		build   SectionBuilder
		tx      receipt.Transaction
		cfg     receipt.PrintConfig
		want    []string
		wantNot []string
		empty   bool
	}{
		{
			name:  "no items",
			build: ItemList,
			tx:    receipt.Transaction{Items: []receipt.LineItem{}},
			empty: true,
		},
		{
			name:  "item row",
			build: ItemList,
			tx: receipt.Transaction{Items: []receipt.LineItem{
				{Description: "Boné", Quantity: receipt.AmountFromFloat(1.5), UnitPrice: receipt.AmountFromInt(10)},
			}},
			want: []string{`<span class="desc">Boné</span>`, `<span class="qtd">1.5x</span>`, `R$ 15.00`},
		},
		{
			name:  "subtotal absent",
			build: Subtotal,
			tx:    receipt.Transaction{},
			empty: true,
		},
		{
			name:  "subtotal zero",
			build: Subtotal,
			tx:    receipt.Transaction{Subtotal: receipt.AmountFromInt(0)},
			empty: true,
		},
		{
			name:  "subtotal present",
			build: Subtotal,
			tx:    receipt.Transaction{Subtotal: receipt.AmountFromFloat(99.5)},
			want:  []string{"Subtotal:", "R$ 99.50"},
		},
		{
			name:  "discount without percent",
			build: Discount,
			tx:    receipt.Transaction{DiscountAmount: receipt.AmountFromInt(3)},
			want:  []string{"Desconto (0%):", "R$ 3.00"},
		},
		{
			name:  "negative discount",
			build: Discount,
			tx:    receipt.Transaction{DiscountAmount: receipt.AmountFromInt(-3)},
			empty: true,
		},
		{
			name:    "payment card",
			build:   Payment,
			tx:      receipt.Transaction{PaymentMethod: "Cartão", AmountTendered: receipt.AmountFromInt(10)},
			want:    []string{"Forma de pagamento: Cartão"},
			wantNot: []string{"Troco"},
		},
		{
			name:    "cash without tendered",
			build:   Payment,
			tx:      receipt.Transaction{PaymentMethod: receipt.CashPaymentMethod},
			want:    []string{"Forma de pagamento: Dinheiro"},
			wantNot: []string{"Valor recebido"},
		},
		{
			name:  "two copies",
			build: ExtraVias,
			cfg:   receipt.PrintConfig{Copies: 2},
			want:  []string{"VIA 2"},
		},
		{
			name:  "one copy",
			build: ExtraVias,
			cfg:   receipt.PrintConfig{Copies: 1},
			empty: true,
		},
		{
			name:  "vias in preview",
			build: ExtraVias,
			cfg:   receipt.PrintConfig{Mode: receipt.PrintModePreview, Copies: 3},
			empty: true,
		},
		{
			name:  "client copy",
			build: ClientCopy,
			cfg:   receipt.PrintConfig{IncludeClientCopy: true},
			want:  []string{"VIA DO CLIENTE", "page-break-before: always;"},
		},
		{
			name:  "client copy in preview",
			build: ClientCopy,
			cfg:   receipt.PrintConfig{Mode: "VISUALIZAR", IncludeClientCopy: true},
			empty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			fragment, err := tt.build(SectionInput{Transaction: &tx, Config: tt.cfg})
			require.NoError(t, err)
			if tt.empty {
				assert.Empty(t, strings.TrimSpace(string(fragment)))
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, string(fragment), w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, string(fragment), w)
			}
		})
	}
}

func TestExtraVias_Labels(t *testing.T) {
	fragment, err := ExtraVias(SectionInput{Transaction: &receipt.Transaction{}, Config: receipt.PrintConfig{Copies: 4}})
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(fragment), "page-break-before"))
	assert.Contains(t, string(fragment), "VIA 4")
	assert.NotContains(t, string(fragment), "VIA 1<")
}
