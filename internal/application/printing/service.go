package printing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/receipt"
	"github.com/erp/receipt/internal/domain/shared"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"github.com/erp/receipt/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MessageDirectPrinted is returned when the print service accepted a document
const MessageDirectPrinted = "Comprovante enviado para impressão"

// Printer is a configured print target
type Printer struct {
	ID    int
	Name  string
	Paper receipt.PaperSize
}

// ServiceConfig holds print service settings
type ServiceConfig struct {
	// Defaults are offered to front ends by GetPrintConfig
	Defaults receipt.PrintConfig
	// DefaultPrinterID selects the default entry of Printers
	DefaultPrinterID int
	// Printers are the known print targets
	Printers []Printer
	// TempDir receives the wrapped HTML documents. Default: os.TempDir()
	TempDir string
	// CleanupDelay is how long a wrapped document stays on disk. Default: 10s
	CleanupDelay time.Duration
	// RenderTimeout bounds one PDF rendering. Zero uses the renderer default.
	RenderTimeout time.Duration
	// MarginMM is the PDF page margin
	MarginMM float64
	// Retention is how long stored documents and jobs are kept. Zero keeps them.
	Retention time.Duration
	// Idempotency controls replay of direct print submissions
	Idempotency shared.IdempotencyConfig
}

// DefaultServiceConfig returns the stock print server settings
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Defaults:         receipt.DefaultPrintConfig(),
		DefaultPrinterID: 1,
		Printers: []Printer{
			{ID: 1, Name: printing.DefaultPrinterName, Paper: receipt.Paper80mm},
		},
		TempDir:      os.TempDir(),
		CleanupDelay: 10 * time.Second,
		MarginMM:     2,
		Retention:    30 * 24 * time.Hour,
		Idempotency:  shared.DefaultIdempotencyConfig(),
	}
}

// JobRecorder observes finished print jobs
type JobRecorder interface {
	RecordJob(ctx context.Context, job *printing.PrintJob, elapsed time.Duration)
}

// PrintService handles direct printing, reprint audits and print job queries
type PrintService struct {
	jobRepo     printing.PrintJobRepository
	reprintRepo printing.ReprintRepository
	renderer    infra.PDFRenderer
	storage     infra.DocumentStorage
	idempotency shared.IdempotencyStore
	recorder    JobRecorder
	events      shared.EventPublisher
	auditLog    *zap.Logger
	config      ServiceConfig
	afterFunc   func(d time.Duration, f func())
	logger      *zap.Logger
}

// ServiceOption configures a PrintService
type ServiceOption func(*PrintService)

// WithIdempotencyStore enables Idempotency-Key replay
func WithIdempotencyStore(store shared.IdempotencyStore) ServiceOption {
	return func(s *PrintService) { s.idempotency = store }
}

// WithJobRecorder reports finished jobs to r
func WithJobRecorder(r JobRecorder) ServiceOption {
	return func(s *PrintService) { s.recorder = r }
}

// WithEventPublisher publishes the print job lifecycle events after each save
func WithEventPublisher(p shared.EventPublisher) ServiceOption {
	return func(s *PrintService) { s.events = p }
}

// WithAuditLog appends reprint entries to the given logger
func WithAuditLog(l *zap.Logger) ServiceOption {
	return func(s *PrintService) { s.auditLog = l }
}

// NewPrintService creates a new PrintService
func NewPrintService(
	jobRepo printing.PrintJobRepository,
	reprintRepo printing.ReprintRepository,
	renderer infra.PDFRenderer,
	storage infra.DocumentStorage,
	config ServiceConfig,
	logger *zap.Logger,
	opts ...ServiceOption,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.Defaults.Mode == "" {
		config.Defaults = receipt.DefaultPrintConfig()
	}
	s := &PrintService{
		jobRepo:     jobRepo,
		reprintRepo: reprintRepo,
		renderer:    renderer,
		storage:     storage,
		config:      config,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		auditLog:    zap.NewNop(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Direct print
// =============================================================================

// PrintDirect wraps the fragment, renders it to PDF and records a print job.
// Submissions carrying an idempotency key are answered once and replayed after.
func (s *PrintService) PrintDirect(ctx context.Context, req DirectPrintRequest) (*DirectPrintResponse, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "HTML não fornecido")
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || s.idempotency == nil || !s.config.Idempotency.Enabled {
		return s.printDirect(ctx, printing.JobSourceDirect, req)
	}

	replayed, err := s.replay(ctx, key)
	if err != nil || replayed != nil {
		return replayed, err
	}
	reserved, err := s.idempotency.Reserve(ctx, key, s.config.Idempotency.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !reserved {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "A print with this Idempotency-Key is in progress")
	}

	resp, err := s.printDirect(ctx, printing.JobSourceDirect, req)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
		}
		return nil, err
	}

	payload, err := json.Marshal(resp)
	if err == nil {
		err = s.idempotency.Complete(ctx, key, payload, s.config.Idempotency.TTL)
	}
	if err != nil {
		s.logger.Warn("failed to store idempotent response", zap.String("key", key), zap.Error(err))
	}
	return resp, nil
}

func (s *PrintService) replay(ctx context.Context, key string) (*DirectPrintResponse, error) {
	payload, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if !found {
		return nil, nil
	}
	if payload == nil {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "A print with this Idempotency-Key is in progress")
	}
	var resp DirectPrintResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode idempotent response: %w", err)
	}
	resp.Replayed = true
	return &resp, nil
}

func (s *PrintService) printDirect(ctx context.Context, source printing.JobSource, req DirectPrintRequest) (*DirectPrintResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "direct",
		telemetry.WithAttribute(telemetry.SpanAttrSource, source.String()),
		telemetry.WithAttribute(telemetry.SpanAttrIdempotency, req.IdempotencyKey != ""))
	defer span.End()

	wrapped, err := infra.WrapForDirectPrint(req.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap document: %w", err)
	}

	documentName := fmt.Sprintf("comprovante_%d.html", started.Unix())
	job, err := printing.NewPrintJob(source, req.PrinterName, documentName)
	if err != nil {
		return nil, err
	}
	job.SetOrigin(req.RequestedBy, req.ClientIP)
	job.SetIdempotencyKey(req.IdempotencyKey)

	if err := s.saveJob(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save print job: %w", err)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobID, job.ID.String(),
		telemetry.SpanAttrPrinter, job.PrinterName)

	tempPath := filepath.Join(s.config.TempDir, job.ID.String()+"_"+documentName)
	if err := os.WriteFile(tempPath, []byte(wrapped), 0o600); err != nil {
		return s.failJob(ctx, job, started, "Falha ao gravar o comprovante", err)
	}
	s.scheduleRemoval(tempPath)

	if err := job.StartRendering(); err != nil {
		return nil, err
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	paper := s.paperFor(job.PrinterName)
	var rendered *infra.RenderResult
	telemetry.WithProfilingLabels(ctx, telemetry.RenderLabels("direct_print", job.PrinterName, paper.String()), func(ctx context.Context) {
		rendered, err = s.renderer.Render(ctx, &infra.RenderRequest{
			HTML:     wrapped,
			Paper:    paper,
			MarginMM: s.config.MarginMM,
			Title:    "Comprovante de Venda",
			Timeout:  s.config.RenderTimeout,
		})
	})
	if err != nil {
		return s.failJob(ctx, job, started, "Falha ao gerar o PDF do comprovante", err)
	}

	stored, err := s.storage.Store(ctx, &infra.StoreRequest{
		JobID:       job.ID,
		PrinterName: job.PrinterName,
		Data:        rendered.PDFData,
	})
	if err != nil {
		return s.failJob(ctx, job, started, "Falha ao salvar o PDF do comprovante", err)
	}

	if err := job.Complete(stored.Path, stored.URL, stored.Size); err != nil {
		return nil, err
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	s.record(ctx, job, started)
	telemetry.SetAttributes(span, telemetry.SpanAttrByteSize, stored.Size)
	telemetry.SetOK(span)

	s.logger.Info("receipt printed",
		zap.String("jobId", job.ID.String()),
		zap.String("printer", job.PrinterName),
		zap.Int("pages", rendered.PageCount),
		zap.String("url", stored.URL))

	return &DirectPrintResponse{
		Success: true,
		Message: MessageDirectPrinted,
		JobID:   job.ID.String(),
		URL:     stored.URL,
	}, nil
}

// failJob marks the job failed and answers with a rejected submission
func (s *PrintService) failJob(ctx context.Context, job *printing.PrintJob, started time.Time, message string, cause error) (*DirectPrintResponse, error) {
	s.logger.Error("direct print failed", zap.Error(cause), zap.String("jobId", job.ID.String()))
	telemetry.RecordError(trace.SpanFromContext(ctx), cause)
	if err := job.Fail(message); err != nil {
		return nil, err
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	s.record(ctx, job, started)
	return &DirectPrintResponse{Success: false, Error: message, JobID: job.ID.String()}, nil
}

// saveJob persists the job and publishes its pending events
func (s *PrintService) saveJob(ctx context.Context, job *printing.PrintJob) error {
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return err
	}
	if s.events == nil {
		return nil
	}
	events := job.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	// the bus logs handler failures itself
	_ = s.events.Publish(ctx, events...)
	job.ClearDomainEvents()
	return nil
}

func (s *PrintService) record(ctx context.Context, job *printing.PrintJob, started time.Time) {
	if s.recorder != nil {
		s.recorder.RecordJob(ctx, job, time.Since(started))
	}
}

func (s *PrintService) scheduleRemoval(path string) {
	remove := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove temporary receipt", zap.String("path", path), zap.Error(err))
		}
	}
	if s.config.CleanupDelay <= 0 {
		remove()
		return
	}
	s.afterFunc(s.config.CleanupDelay, remove)
}

func (s *PrintService) paperFor(printerName string) receipt.PaperSize {
	for _, p := range s.config.Printers {
		if strings.EqualFold(p.Name, printerName) && p.Paper.IsValid() {
			return p.Paper
		}
	}
	return s.config.Defaults.PaperSize
}

// =============================================================================
// Configuration
// =============================================================================

// GetPrintConfig returns the default print configuration and printer
func (s *PrintService) GetPrintConfig() PrintConfigResponse {
	d := s.config.Defaults
	printer := s.defaultPrinter()
	return PrintConfigResponse{
		Success: true,
		Config: PrintConfigData{
			Mode:              d.Mode.String(),
			PaperSize:         d.PaperSize.String(),
			Copies:            d.Copies,
			IncludeClientCopy: d.IncludeClientCopy,
			FooterMessage:     d.FooterMessage,
			PrinterID:         printer.ID,
			PrinterName:       printer.Name,
		},
	}
}

// ListPrinters returns the configured printers
func (s *PrintService) ListPrinters() []PrinterResponse {
	def := s.defaultPrinter()
	result := make([]PrinterResponse, 0, len(s.config.Printers))
	for _, p := range s.config.Printers {
		paper := p.Paper
		if paper == "" {
			paper = s.config.Defaults.PaperSize
		}
		result = append(result, PrinterResponse{
			ID:      p.ID,
			Name:    p.Name,
			Paper:   paper.String(),
			Default: p.ID == def.ID,
		})
	}
	return result
}

func (s *PrintService) defaultPrinter() Printer {
	for _, p := range s.config.Printers {
		if p.ID == s.config.DefaultPrinterID {
			return p
		}
	}
	if len(s.config.Printers) > 0 {
		return s.config.Printers[0]
	}
	return Printer{ID: 1, Name: printing.DefaultPrinterName, Paper: s.config.Defaults.PaperSize}
}

// =============================================================================
// Reprint
// =============================================================================

// Reprint records a request to print a past sale again. When the receipt
// markup is included it is printed as a REPRINT job.
func (s *PrintService) Reprint(ctx context.Context, req ReprintRequest) (*ReprintResponse, error) {
	entry, err := printing.NewReprintEntry(req.SaleID, req.Seller, req.Total, req.ClientIP)
	if err != nil {
		return nil, err
	}
	if err := s.reprintRepo.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save reprint entry: %w", err)
	}

	s.auditLog.Info(entry.Action,
		zap.Time("timestamp", entry.Timestamp),
		zap.Int64("venda_id", entry.SaleID),
		zap.String("vendedor", entry.Seller),
		zap.String("total", entry.Total.String()),
		zap.String("ip", entry.ClientIP))

	s.logger.Info("reprint requested",
		zap.Int64("saleId", entry.SaleID),
		zap.String("seller", entry.Seller))

	resp := &ReprintResponse{
		Success:   true,
		Message:   fmt.Sprintf("Venda #%d enviada para impressão", entry.SaleID),
		Timestamp: entry.Timestamp,
	}
	if strings.TrimSpace(req.HTML) == "" {
		return resp, nil
	}

	printed, err := s.printDirect(ctx, printing.JobSourceReprint, DirectPrintRequest{
		HTML:        req.HTML,
		PrinterName: req.PrinterName,
		RequestedBy: req.Seller,
		ClientIP:    req.ClientIP,
	})
	if err != nil {
		return nil, err
	}
	resp.JobID = printed.JobID
	if !printed.Success {
		resp.Success = false
		resp.Message = printed.Error
	}
	return resp, nil
}

// ListReprints returns audited reprints, optionally for one sale
func (s *PrintService) ListReprints(ctx context.Context, saleID int64, filter shared.Filter) ([]ReprintEntryResponse, error) {
	var (
		entries []printing.ReprintEntry
		err     error
	)
	if saleID > 0 {
		entries, err = s.reprintRepo.FindBySale(ctx, saleID)
	} else {
		entries, err = s.reprintRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list reprints: %w", err)
	}

	result := make([]ReprintEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = toReprintResponse(&e)
	}
	return result, nil
}

// =============================================================================
// Print Job Operations
// =============================================================================

// GetJob retrieves a print job by ID
func (s *PrintService) GetJob(ctx context.Context, jobID uuid.UUID) (*PrintJobResponse, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return toJobResponse(job), nil
}

// ListJobs retrieves a paginated list of print jobs
func (s *PrintService) ListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := printing.PrintJobFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
		PrinterName: req.Printer,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if req.Status != "" {
		status := printing.JobStatus(strings.ToUpper(req.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid print job status")
		}
		filter.Status = &status
	}
	if req.Source != "" {
		source := printing.JobSource(strings.ToUpper(req.Source))
		if !source.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid print job source")
		}
		filter.Source = &source
	}

	jobs, err := s.jobRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	total, err := s.jobRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	items := make([]PrintJobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = *toJobResponse(&j)
	}

	return &ListJobsResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// OpenJobDocument opens the stored PDF of a completed job
func (s *PrintService) OpenJobDocument(ctx context.Context, jobID uuid.UUID) (io.ReadCloser, *PrintJobResponse, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if !job.HasDocument() {
		return nil, nil, shared.NewDomainError("INVALID_STATE", "Print job has no document")
	}

	rc, err := s.storage.Get(ctx, job.DocumentPath)
	if err != nil {
		var renderErr *infra.RenderError
		if errors.As(err, &renderErr) && renderErr.Code == infra.ErrCodeNotFound {
			return nil, nil, shared.NewDomainError("NOT_FOUND", "Document not found")
		}
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return rc, toJobResponse(job), nil
}

func (s *PrintService) findJob(ctx context.Context, jobID uuid.UUID) (*printing.PrintJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Print job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// =============================================================================
// Retention
// =============================================================================

// CleanupExpired removes stored documents and jobs older than the retention
func (s *PrintService) CleanupExpired(ctx context.Context) (*CleanupResult, error) {
	if s.config.Retention <= 0 {
		return &CleanupResult{}, nil
	}

	docs, err := s.storage.CleanupOlderThan(ctx, s.config.Retention)
	if err != nil {
		return nil, fmt.Errorf("failed to clean up documents: %w", err)
	}
	jobs, err := s.jobRepo.DeleteOlderThan(ctx, time.Now().Add(-s.config.Retention))
	if err != nil {
		return nil, fmt.Errorf("failed to clean up jobs: %w", err)
	}

	s.logger.Info("print retention applied",
		zap.Int("documents", docs),
		zap.Int64("jobs", jobs),
		zap.Duration("retention", s.config.Retention))
	return &CleanupResult{Documents: docs, Jobs: jobs}, nil
}

// RunRetention applies the retention every interval until ctx is done
func (s *PrintService) RunRetention(ctx context.Context, interval time.Duration) {
	if s.config.Retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				s.logger.Error("print retention failed", zap.Error(err))
			}
		}
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

func toJobResponse(j *printing.PrintJob) *PrintJobResponse {
	return &PrintJobResponse{
		ID:           j.ID.String(),
		Source:       j.Source.String(),
		PrinterName:  j.PrinterName,
		DocumentName: j.DocumentName,
		Status:       j.Status.String(),
		DocumentURL:  j.DocumentURL,
		ByteSize:     j.ByteSize,
		ErrorMessage: j.ErrorMessage,
		RequestedBy:  j.RequestedBy,
		ClientIP:     j.ClientIP,
		PrintedAt:    j.PrintedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func toReprintResponse(e *printing.ReprintEntry) ReprintEntryResponse {
	return ReprintEntryResponse{
		ID:        e.ID.String(),
		Timestamp: e.Timestamp,
		Action:    e.Action,
		SaleID:    e.SaleID,
		Seller:    e.Seller,
		Total:     e.Total,
		ClientIP:  e.ClientIP,
	}
}
