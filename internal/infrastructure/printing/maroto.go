package printing

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/linestyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/domain/receipt"
)

const (
	thermalMarginMM = 3
	rowHeightMM     = 5
	// fixed rows: header, customer block, totals, payment and footer
	thermalBaseHeightMM = 140
)

// MarotoReceiptRenderer draws the receipt directly as a PDF, without a browser
type MarotoReceiptRenderer struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewMarotoReceiptRenderer creates the renderer
func NewMarotoReceiptRenderer(logger *zap.Logger) *MarotoReceiptRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarotoReceiptRenderer{now: time.Now, logger: logger}
}

// Render produces a PDF with the same content as the HTML receipt
func (r *MarotoReceiptRenderer) Render(tx *receipt.Transaction, company receipt.Company, cfg receipt.PrintConfig) ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if company.DisplayName == "" {
		company = receipt.DefaultCompany(cfg.FooterMessage)
	}

	m := maroto.New(r.pageConfig(tx, cfg))
	base := 8.0
	if cfg.Mode.Style() == receipt.StyleFiscal {
		base = 7.0
	}
	small := props.Text{Size: base - 1, Align: align.Center}
	body := props.Text{Size: base, Align: align.Left}
	bold := props.Text{Size: base, Align: align.Left, Style: fontstyle.Bold}

	m.AddRow(7, text.NewCol(12, company.DisplayName, props.Text{Size: base + 2, Style: fontstyle.Bold, Align: align.Center}))
	if !cfg.Mode.IsAutomatic() {
		m.AddRow(rowHeightMM, text.NewCol(12, "Impressora: "+orDefault(tx.PrinterName, noPrinterLabel), small))
	}
	for _, info := range []string{company.FormattedTaxID, company.Address, company.Contact} {
		if info != "" {
			m.AddRow(rowHeightMM, text.NewCol(12, info, small))
		}
	}
	if company.HeaderNote != "" {
		m.AddRow(rowHeightMM, text.NewCol(12, company.HeaderNote, props.Text{Size: base - 1, Align: align.Center, Style: fontstyle.Italic}))
	}
	addDivider(m)

	m.AddRow(rowHeightMM, text.NewCol(12, "Venda: #"+receipt.FormatSaleSequence(tx.SaleID), body))
	m.AddRow(rowHeightMM, text.NewCol(12, "Cliente: "+orDefault(tx.Client, defaultClientLabel), body))
	if taxID := receipt.FormatTaxID(tx.TaxID); taxID != "" {
		m.AddRow(rowHeightMM, text.NewCol(12, "CPF/CNPJ: "+taxID, body))
	}
	m.AddRow(rowHeightMM, text.NewCol(12, "Vendedor: "+orDefault(tx.SellerName, defaultSellerLabel), body))
	m.AddRow(rowHeightMM, text.NewCol(12, "Data: "+tx.DateLabel, body))
	addDivider(m)

	m.AddRow(rowHeightMM,
		text.NewCol(7, "PRODUTO", props.Text{Size: base - 1, Style: fontstyle.Bold}),
		text.NewCol(2, "QTD", props.Text{Size: base - 1, Style: fontstyle.Bold, Align: align.Center}),
		text.NewCol(3, "TOTAL", props.Text{Size: base - 1, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, item := range tx.Items {
		m.AddRow(rowHeightMM,
			text.NewCol(7, item.Description, body),
			text.NewCol(2, receipt.FormatQuantity(item.Quantity)+"x", props.Text{Size: base, Align: align.Center}),
			text.NewCol(3, "R$ "+receipt.FormatCurrency(item.LineTotal()), props.Text{Size: base, Align: align.Right}),
		)
	}
	addDivider(m)

	if tx.Subtotal.IsTruthy() {
		addAmountRow(m, "Subtotal:", tx.Subtotal, body)
	}
	if tx.DiscountAmount.IsPositive() {
		label := fmt.Sprintf("Desconto (%s%%):", receipt.FormatQuantity(tx.DiscountPercent))
		addAmountRow(m, label, tx.DiscountAmount, body)
	}
	addAmountRow(m, "TOTAL", tx.Total, props.Text{Size: base + 2, Style: fontstyle.Bold})
	addDivider(m)

	m.AddRow(rowHeightMM, text.NewCol(12, "Forma de pagamento: "+tx.PaymentMethod, body))
	if tx.PaymentMethod == receipt.CashPaymentMethod && tx.AmountTendered.IsTruthy() {
		m.AddRow(rowHeightMM, text.NewCol(12, "Valor recebido: R$ "+receipt.FormatCurrency(tx.AmountTendered), body))
		m.AddRow(rowHeightMM, text.NewCol(12, "Troco: R$ "+receipt.FormatCurrency(tx.ChangeDue), body))
	}
	addDivider(m)

	m.AddRow(rowHeightMM, text.NewCol(12, cfg.FooterMessage, small))
	m.AddRow(rowHeightMM, text.NewCol(12, "** COMPROVANTE NÃO FISCAL **", small))
	m.AddRow(rowHeightMM, text.NewCol(12, fmt.Sprintf("© %d %s", r.now().Year(), company.DisplayName), small))

	if !cfg.Mode.IsAutomatic() && !cfg.Mode.IsPreview() {
		if cfg.IncludeClientCopy {
			addDivider(m)
			m.AddRow(8, text.NewCol(12, "VIA DO CLIENTE", bold))
		}
		for i := 2; i <= cfg.Copies; i++ {
			addDivider(m)
			m.AddRow(8, text.NewCol(12, fmt.Sprintf("VIA %d", i), bold))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to generate PDF", err)
	}
	data := doc.GetBytes()
	r.logger.Debug("receipt PDF generated",
		zap.Int("bytes", len(data)),
		zap.Int("items", len(tx.Items)),
		zap.String("paper", cfg.PaperSize.String()))
	return data, nil
}

// pageConfig sizes the page to the paper roll. Thermal pages grow with the
// item count so a receipt stays on one page.
func (r *MarotoReceiptRenderer) pageConfig(tx *receipt.Transaction, cfg receipt.PrintConfig) *entity.Config {
	b := config.NewBuilder()
	if cfg.PaperSize.IsReceipt() {
		height := float64(thermalBaseHeightMM + rowHeightMM*(len(tx.Items)+2*max(cfg.Copies, 1)))
		b = b.WithDimensions(cfg.PaperSize.WidthMM(), height).
			WithLeftMargin(thermalMarginMM).
			WithTopMargin(thermalMarginMM).
			WithRightMargin(thermalMarginMM)
	} else {
		b = b.WithLeftMargin(10).WithTopMargin(15).WithRightMargin(10)
	}
	return b.Build()
}

func addDivider(m core.Maroto) {
	m.AddRow(3, line.NewCol(12, props.Line{Style: linestyle.Dashed}))
}

func addAmountRow(m core.Maroto, label string, amount receipt.Amount, p props.Text) {
	right := p
	right.Align = align.Right
	m.AddRow(rowHeightMM+1,
		col.New(7).Add(text.New(label, p)),
		col.New(5).Add(text.New("R$ "+receipt.FormatCurrency(amount), right)),
	)
}
