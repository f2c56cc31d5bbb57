package receipt

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultFooterMessage is the thank-you line printed when none is configured
const DefaultFooterMessage = "Obrigado pela preferência!"

// PrintMode is the configured print behaviour ("tipo").
// Values are compared case-insensitively.
type PrintMode string

const (
	PrintModeDialog    PrintMode = "dialogo"
	PrintModeAutomatic PrintMode = "automatico"
	PrintModeFiscal    PrintMode = "fiscal"
	PrintModePreview   PrintMode = "visualizar"
)

var modeFolder = cases.Fold()

func (m PrintMode) folded() string {
	return modeFolder.String(strings.TrimSpace(string(m)))
}

// IsAutomatic reports whether the document goes straight to the print service
func (m PrintMode) IsAutomatic() bool {
	switch m.folded() {
	case "auto", "automatico", "automático", "automatic":
		return true
	}
	return false
}

// IsPreview reports whether the dialog only shows the document without printing
func (m PrintMode) IsPreview() bool {
	switch m.folded() {
	case "visualizar", "preview":
		return true
	}
	return false
}

// Style returns the layout density for the mode
func (m PrintMode) Style() Style {
	if m.folded() == string(PrintModeFiscal) {
		return StyleFiscal
	}
	return StyleStandard
}

// Canonical maps aliases onto the declared constants; unknown values map to dialog
func (m PrintMode) Canonical() PrintMode {
	switch {
	case m.IsAutomatic():
		return PrintModeAutomatic
	case m.IsPreview():
		return PrintModePreview
	case m.Style() == StyleFiscal:
		return PrintModeFiscal
	}
	return PrintModeDialog
}

// String returns the string representation of PrintMode
func (m PrintMode) String() string {
	return string(m)
}

// Style is the layout density of the receipt
type Style string

const (
	StyleStandard Style = "standard"
	StyleFiscal   Style = "fiscal"
)

// FontSize returns the base font size for the style
func (s Style) FontSize() string {
	if s == StyleFiscal {
		return "10px"
	}
	return "12px"
}

// PaperSize is the receipt paper ("papel")
type PaperSize string

const (
	Paper58mm PaperSize = "58mm"
	Paper80mm PaperSize = "80mm"
	PaperA4   PaperSize = "a4"
)

func (p PaperSize) normalized() PaperSize {
	return PaperSize(strings.ToLower(strings.TrimSpace(string(p))))
}

// IsValid checks if the PaperSize is a known value
func (p PaperSize) IsValid() bool {
	switch p.normalized() {
	case Paper58mm, Paper80mm, PaperA4:
		return true
	}
	return false
}

// Width returns the CSS body width. Unknown sizes use the 80mm width.
func (p PaperSize) Width() string {
	switch p.normalized() {
	case Paper58mm:
		return "200px"
	case PaperA4:
		return "210mm"
	}
	return "280px"
}

// WidthMM returns the physical paper width in millimeters
func (p PaperSize) WidthMM() float64 {
	switch p.normalized() {
	case Paper58mm:
		return 58
	case PaperA4:
		return 210
	}
	return 80
}

// IsReceipt returns true for thermal roll sizes
func (p PaperSize) IsReceipt() bool {
	return p.normalized() != PaperA4
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// PrintConfig controls layout and dispatch of one receipt
type PrintConfig struct {
	Mode              PrintMode `json:"tipo" mapstructure:"mode"`
	PaperSize         PaperSize `json:"papel" mapstructure:"paper_size"`
	Copies            int       `json:"vias" mapstructure:"copies"`
	IncludeClientCopy bool      `json:"copiar" mapstructure:"include_client_copy"`
	FooterMessage     string    `json:"mensagem" mapstructure:"footer_message"`
}

// DefaultPrintConfig returns the configuration used when the caller sends none
func DefaultPrintConfig() PrintConfig {
	return PrintConfig{
		Mode:              PrintModeDialog,
		PaperSize:         Paper80mm,
		Copies:            1,
		IncludeClientCopy: false,
		FooterMessage:     DefaultFooterMessage,
	}
}

// ExtraCopies returns how many labelled vias follow the first one
func (c PrintConfig) ExtraCopies() int {
	if c.Copies <= 1 {
		return 0
	}
	return c.Copies - 1
}

// PrintRequest is the payload a checkout hands over for one receipt
type PrintRequest struct {
	Transaction
	Company *Company     `json:"empresa,omitempty"`
	Config  *PrintConfig `json:"config_impressao,omitempty"`
}

// Resolve fills absent company and configuration with defaults
func (r PrintRequest) Resolve() (Transaction, Company, PrintConfig) {
	cfg := DefaultPrintConfig()
	if r.Config != nil {
		cfg = *r.Config
	}
	company := DefaultCompany(cfg.FooterMessage)
	if r.Company != nil && r.Company.DisplayName != "" {
		company = *r.Company
	}
	return r.Transaction, company, cfg
}
