package printing

import (
	"bytes"
	"html/template"
	"time"

	"github.com/erp/receipt/internal/domain/receipt"
)

const (
	defaultClientLabel  = "Consumidor"
	defaultSellerLabel  = "Sistema"
	noPrinterLabel      = "Impressora não selecionada"
	documentTemplateKey = "receipt"
)

var documentTemplate = template.Must(
	template.New("document").Funcs(funcMap).ParseFS(templateFS, "templates/receipt.html"),
)

// Composer assembles the full receipt document
type Composer struct {
	now func() time.Time
}

// ComposerOption configures the composer
type ComposerOption func(*Composer)

// WithClock sets the clock used for the copyright year
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		c.now = now
	}
}

// NewComposer creates a composer
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type documentView struct {
	Width         string
	FontSize      string
	Company       receipt.Company
	PrinterLine   string
	SaleSequence  string
	Client        string
	TaxID         string
	Seller        string
	Date          string
	Items         template.HTML
	Subtotal      template.HTML
	Discount      template.HTML
	Total         receipt.Amount
	Payment       template.HTML
	FooterMessage string
	Year          int
	ClientCopy    template.HTML
	ExtraVias     template.HTML
}

type section struct {
	build SectionBuilder
	dst   *template.HTML
}

// Compose renders the receipt. It fails only when the transaction has no
// item list or a non-numeric total.
//
// Via and client copy blocks belong to the dialog path, so they are left out
// when the mode is automatic.
func (c *Composer) Compose(tx *receipt.Transaction, company receipt.Company, cfg receipt.PrintConfig) (receipt.Document, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if company.DisplayName == "" {
		company = receipt.DefaultCompany(cfg.FooterMessage)
	}

	in := SectionInput{Transaction: tx, Company: company, Config: cfg}
	view := documentView{
		Width:         cfg.PaperSize.Width(),
		FontSize:      cfg.Mode.Style().FontSize(),
		Company:       company,
		SaleSequence:  receipt.FormatSaleSequence(tx.SaleID),
		Client:        orDefault(tx.Client, defaultClientLabel),
		TaxID:         receipt.FormatTaxID(tx.TaxID),
		Seller:        orDefault(tx.SellerName, defaultSellerLabel),
		Date:          tx.DateLabel,
		Total:         tx.Total,
		FooterMessage: cfg.FooterMessage,
		Year:          c.now().Year(),
	}
	// documents for the print dialog name the selected printer
	if !cfg.Mode.IsAutomatic() {
		view.PrinterLine = orDefault(tx.PrinterName, noPrinterLabel)
	}

	sections := []section{
		{ItemList, &view.Items},
		{Subtotal, &view.Subtotal},
		{Discount, &view.Discount},
		{Payment, &view.Payment},
	}
	if !cfg.Mode.IsAutomatic() {
		sections = append(sections,
			section{ClientCopy, &view.ClientCopy},
			section{ExtraVias, &view.ExtraVias},
		)
	}
	for _, s := range sections {
		fragment, err := s.build(in)
		if err != nil {
			return "", receipt.NewCompositionError(err.Error())
		}
		*s.dst = fragment
	}

	var buf bytes.Buffer
	if err := documentTemplate.ExecuteTemplate(&buf, documentTemplateKey, view); err != nil {
		return "", receipt.NewCompositionError("failed to render receipt: " + err.Error())
	}
	return receipt.Document(buf.String()), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
