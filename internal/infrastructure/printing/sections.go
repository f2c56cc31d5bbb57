package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/erp/receipt/internal/domain/receipt"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"money": receipt.FormatCurrency,
	"qty":   receipt.FormatQuantity,
}

var sectionTemplates = template.Must(
	template.New("sections").Funcs(funcMap).ParseFS(templateFS, "templates/sections.html"),
)

// SectionInput is what every section builder reads
type SectionInput struct {
	Transaction *receipt.Transaction
	Company     receipt.Company
	Config      receipt.PrintConfig
}

// SectionBuilder renders one optional fragment of the receipt.
// An empty fragment means the section is omitted.
type SectionBuilder func(in SectionInput) (template.HTML, error)

func renderSection(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := sectionTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s section: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// ItemList renders one row per line item
func ItemList(in SectionInput) (template.HTML, error) {
	if len(in.Transaction.Items) == 0 {
		return "", nil
	}
	return renderSection("items", in.Transaction.Items)
}

// Subtotal renders the subtotal line when the sale carries a non-zero subtotal
func Subtotal(in SectionInput) (template.HTML, error) {
	if !in.Transaction.Subtotal.IsTruthy() {
		return "", nil
	}
	return renderSection("subtotal", in.Transaction.Subtotal)
}

// Discount renders the discount line when a positive discount was given
func Discount(in SectionInput) (template.HTML, error) {
	tx := in.Transaction
	if !tx.DiscountAmount.IsPositive() {
		return "", nil
	}
	return renderSection("discount", struct {
		Percent receipt.Amount
		Amount  receipt.Amount
	}{
		Percent: tx.DiscountPercent.Or(receipt.AmountFromInt(0)),
		Amount:  tx.DiscountAmount,
	})
}

// Payment renders the payment method, plus tendered amount and change for cash
func Payment(in SectionInput) (template.HTML, error) {
	tx := in.Transaction
	return renderSection("payment", struct {
		Method   string
		ShowCash bool
		Tendered receipt.Amount
		Change   receipt.Amount
	}{
		Method:   tx.PaymentMethod,
		ShowCash: tx.PaymentMethod == receipt.CashPaymentMethod && tx.AmountTendered.IsTruthy(),
		Tendered: tx.AmountTendered,
		Change:   tx.ChangeDue.Or(receipt.AmountFromInt(0)),
	})
}

// ExtraVias renders a page break and label for every copy after the first,
// numbered from 2. Preview mode renders nothing.
func ExtraVias(in SectionInput) (template.HTML, error) {
	if in.Config.Mode.IsPreview() {
		return "", nil
	}
	extra := in.Config.ExtraCopies()
	if extra == 0 {
		return "", nil
	}
	labels := make([]int, 0, extra)
	for i := 2; i <= in.Config.Copies; i++ {
		labels = append(labels, i)
	}
	return renderSection("extra_vias", labels)
}

// ClientCopy renders the client copy block when enabled. Preview mode renders nothing.
func ClientCopy(in SectionInput) (template.HTML, error) {
	if in.Config.Mode.IsPreview() || !in.Config.IncludeClientCopy {
		return "", nil
	}
	return renderSection("client_copy", nil)
}
