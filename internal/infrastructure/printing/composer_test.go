package printing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receipt/internal/domain/receipt"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
}

func sampleTransaction() *receipt.Transaction {
	return &receipt.Transaction{
		SaleID:     receipt.SaleNumber(7),
		Client:     "Maria Silva",
		SellerName: "João",
		TaxID:      "12345678901",
		DateLabel:  "14/03/2025 10:00",
		Items: []receipt.LineItem{
			{Description: "Chinelo Azul", Quantity: receipt.AmountFromInt(2), UnitPrice: receipt.AmountFromFloat(19.9)},
			{Description: "Meia", Quantity: receipt.AmountFromInt(1), UnitPrice: receipt.AmountFromInt(10)},
		},
		PaymentMethod: "Cartão",
		Total:         receipt.AmountFromFloat(49.8),
	}
}

func compose(t *testing.T, tx *receipt.Transaction, company receipt.Company, cfg receipt.PrintConfig) string {
	t.Helper()
	doc, err := NewComposer(WithClock(fixedClock)).Compose(tx, company, cfg)
	require.NoError(t, err)
	return doc.String()
}

func TestComposer_Layout(t *testing.T) {
	doc := compose(t, sampleTransaction(), receipt.Company{}, receipt.DefaultPrintConfig())

	assert.Contains(t, doc, "width: 280px;")
	assert.Contains(t, doc, "font-size: 12px;")
	assert.Contains(t, doc, `<div class="empresa-nome">Lojas Havaianas</div>`)
	assert.Contains(t, doc, "#007")
	assert.Contains(t, doc, "Maria Silva")
	assert.Contains(t, doc, "123.456.789-01")
	assert.Contains(t, doc, "João")
	assert.Contains(t, doc, "14/03/2025 10:00")
	assert.Contains(t, doc, `<span class="qtd">2x</span>`)
	assert.Contains(t, doc, "R$ 39.80")
	assert.Contains(t, doc, "R$ 10.00")
	assert.Contains(t, doc, "R$ 49.80")
	assert.Contains(t, doc, "Forma de pagamento: Cartão")
	assert.Contains(t, doc, receipt.DefaultFooterMessage)
	assert.Contains(t, doc, "** COMPROVANTE NÃO FISCAL **")
	assert.Contains(t, doc, "© 2025 Lojas Havaianas")
	assert.NotContains(t, doc, "empresa-info\">")
	assert.Contains(t, doc, "Impressora: Impressora não selecionada")

	order := []string{`class="empresa-nome"`, `class="info-cliente"`, "PRODUTO", "Chinelo Azul", `class="total"`, "Forma de pagamento", "COMPROVANTE NÃO FISCAL"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(doc, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestComposer_Defaults(t *testing.T) {
	tx := sampleTransaction()
	tx.Client, tx.SellerName, tx.TaxID = "", "", ""
	doc := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())

	assert.Contains(t, doc, "Consumidor")
	assert.Contains(t, doc, "Sistema")
	assert.NotContains(t, doc, "CPF/CNPJ:")
}

func TestComposer_PaperAndStyle(t *testing.T) {
	tests := []struct {
		name  string
		cfg   receipt.PrintConfig
		width string
		font  string
	}{
		{"58mm", receipt.PrintConfig{PaperSize: receipt.Paper58mm}, "200px", "12px"},
		{"a4", receipt.PrintConfig{PaperSize: receipt.PaperA4}, "210mm", "12px"},
		{"unknown", receipt.PrintConfig{PaperSize: "letter"}, "280px", "12px"},
		{"fiscal", receipt.PrintConfig{Mode: receipt.PrintModeFiscal, PaperSize: receipt.Paper80mm}, "280px", "10px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := compose(t, sampleTransaction(), receipt.Company{}, tt.cfg)
			assert.Contains(t, doc, "width: "+tt.width+";")
			assert.Contains(t, doc, "font-size: "+tt.font+";\n")
		})
	}
}

func TestComposer_CompanyBlock(t *testing.T) {
	company := receipt.Company{
		DisplayName:    "Havaianas Centro",
		FormattedTaxID: "CNPJ: 12.345.678/0001-95",
		Address:        "Rua A - nº 10",
		HeaderNote:     "Troca em até 30 dias",
	}
	doc := compose(t, sampleTransaction(), company, receipt.DefaultPrintConfig())

	assert.Contains(t, doc, `<div class="empresa-info">CNPJ: 12.345.678/0001-95</div>`)
	assert.Contains(t, doc, `<div class="empresa-info">Rua A - nº 10</div>`)
	assert.Equal(t, 2, strings.Count(doc, `<div class="empresa-info">`))
	assert.Contains(t, doc, "Troca em até 30 dias")
	assert.Contains(t, doc, "© 2025 Havaianas Centro")
}

func TestComposer_Discount(t *testing.T) {
	tx := sampleTransaction()
	tx.DiscountAmount = receipt.AmountFromInt(0)
	doc := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.NotContains(t, doc, `class="desconto"`)

	tx.DiscountAmount = receipt.AmountFromInt(5)
	tx.DiscountPercent = receipt.AmountFromInt(10)
	doc = compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.Equal(t, 1, strings.Count(doc, `class="desconto"`))
	assert.Contains(t, doc, "Desconto (10%):")
	assert.Contains(t, doc, "R$ 5.00")
}

func TestComposer_Escaping(t *testing.T) {
	tx := sampleTransaction()
	tx.Items[0].Description = `Chinelo <b>&</b>`
	doc := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.Contains(t, doc, "Chinelo &lt;b&gt;&amp;&lt;/b&gt;")
}

func TestComposer_Vias(t *testing.T) {
	cfg := receipt.PrintConfig{Mode: receipt.PrintModeDialog, Copies: 3, IncludeClientCopy: true, FooterMessage: "x"}

	t.Run("dialog", func(t *testing.T) {
		doc := compose(t, sampleTransaction(), receipt.Company{}, cfg)
		assert.Equal(t, 3, strings.Count(doc, "page-break-before: always;"))
		client := strings.Index(doc, "VIA DO CLIENTE")
		via2 := strings.Index(doc, "VIA 2")
		via3 := strings.Index(doc, "VIA 3")
		assert.True(t, client >= 0 && client < via2 && via2 < via3)
		assert.NotContains(t, doc, "VIA 4")
		assert.Greater(t, client, strings.Index(doc, "COMPROVANTE NÃO FISCAL"))
	})

	t.Run("preview suppresses vias", func(t *testing.T) {
		preview := cfg
		preview.Mode = receipt.PrintModePreview
		doc := compose(t, sampleTransaction(), receipt.Company{}, preview)
		assert.NotContains(t, doc, "page-break-before")
		assert.Contains(t, doc, "Impressora: Impressora não selecionada")
	})

	t.Run("automatic drops vias", func(t *testing.T) {
		auto := cfg
		auto.Mode = "auto"
		doc := compose(t, sampleTransaction(), receipt.Company{}, auto)
		assert.NotContains(t, doc, "page-break-before")
		assert.NotContains(t, doc, "Impressora:")
	})
}

func TestComposer_Payment(t *testing.T) {
	tx := sampleTransaction()
	tx.PaymentMethod = receipt.CashPaymentMethod
	tx.AmountTendered = receipt.AmountFromInt(60)
	doc := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.Contains(t, doc, "Valor recebido: R$ 60.00")
	assert.Contains(t, doc, "Troco: R$ 0.00")

	tx.ChangeDue = receipt.AmountFromFloat(10.2)
	doc = compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.Contains(t, doc, "Troco: R$ 10.20")

	tx.PaymentMethod = "Pix"
	doc = compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.NotContains(t, doc, "Valor recebido")
}

func TestComposer_Deterministic(t *testing.T) {
	tx := sampleTransaction()
	tx.Subtotal = receipt.AmountFromInt(50)
	first := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	second := compose(t, tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.Equal(t, first, second)

	later, err := NewComposer(WithClock(func() time.Time { return fixedClock().AddDate(1, 0, 0) })).
		Compose(tx, receipt.Company{}, receipt.DefaultPrintConfig())
	require.NoError(t, err)
	assert.Equal(t, first, strings.Replace(later.String(), "© 2026", "© 2025", 1))
}

func TestComposer_Errors(t *testing.T) {
	composer := NewComposer()

	tx := sampleTransaction()
	tx.Items = nil
	_, err := composer.Compose(tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.True(t, errors.Is(err, receipt.ErrComposition))

	tx = sampleTransaction()
	tx.Total = receipt.ParseAmount("abc")
	_, err = composer.Compose(tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.True(t, errors.Is(err, receipt.ErrComposition))

	tx = sampleTransaction()
	tx.Items = []receipt.LineItem{}
	doc, err := composer.Compose(tx, receipt.Company{}, receipt.DefaultPrintConfig())
	require.NoError(t, err)
	assert.NotContains(t, doc.String(), `<div class="item">`)
}
