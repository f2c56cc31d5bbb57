package printing

import (
	"context"
	"fmt"

	"github.com/erp/receipt/internal/domain/receipt"
	"go.uber.org/zap"
)

// ReceiptPDFRenderer builds a native PDF of a receipt
type ReceiptPDFRenderer interface {
	Render(tx *receipt.Transaction, company receipt.Company, cfg receipt.PrintConfig) ([]byte, error)
}

// ReceiptService renders receipts for API callers
type ReceiptService struct {
	composer Composer
	pdf      ReceiptPDFRenderer
	notifier Notifier
	company  *receipt.Company
	logger   *zap.Logger
}

// ReceiptServiceOption configures a ReceiptService
type ReceiptServiceOption func(*ReceiptService)

// WithDefaultCompany replaces the fallback identity of requests sent without a company
func WithDefaultCompany(c receipt.Company) ReceiptServiceOption {
	return func(s *ReceiptService) {
		if c.DisplayName != "" {
			s.company = &c
		}
	}
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(composer Composer, pdf ReceiptPDFRenderer, notifier Notifier, logger *zap.Logger, opts ...ReceiptServiceOption) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReceiptService{
		composer: composer,
		pdf:      pdf,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReceiptService) resolve(req receipt.PrintRequest) (receipt.Transaction, receipt.Company, receipt.PrintConfig) {
	tx, company, cfg := req.Resolve()
	tx = tx.WithDerivedTotals()
	if req.Company == nil && s.company != nil {
		company = *s.company
		if company.FooterNote == "" {
			company.FooterNote = cfg.FooterMessage
		}
	}
	return tx, company, cfg
}

// RenderHTML returns the receipt document. Automatic mode returns the plain
// composed document. Other modes go through the dialog path of the dispatcher
// with the response as surface, so the print trigger is already injected.
func (s *ReceiptService) RenderHTML(ctx context.Context, req receipt.PrintRequest) (receipt.Document, error) {
	tx, company, cfg := s.resolve(req)

	if cfg.Mode.IsAutomatic() {
		doc, err := s.composer.Compose(&tx, company, cfg)
		if err != nil {
			return "", err
		}
		return doc, nil
	}

	surface := NewBufferSurface()
	out := NewDispatcher(s.composer, nil, nil, s.notifier, s.logger).Dispatch(ctx, DispatchRequest{
		Transaction: &tx,
		Company:     company,
		Config:      cfg,
		Surface:     surface,
	})
	if out.Err != nil {
		return "", out.Err
	}
	return receipt.Document(surface.String()), nil
}

// RenderPDF returns a native PDF of the receipt
func (s *ReceiptService) RenderPDF(_ context.Context, req receipt.PrintRequest) ([]byte, error) {
	tx, company, cfg := s.resolve(req)
	data, err := s.pdf.Render(&tx, company, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}
	s.logger.Debug("receipt PDF rendered",
		zap.String("sale", receipt.FormatSaleSequence(tx.SaleID)),
		zap.Int("bytes", len(data)))
	return data, nil
}
