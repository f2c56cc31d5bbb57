package printing

import (
	"strings"
	"time"

	"github.com/erp/receipt/internal/domain/shared"
)

// DefaultPrinterName is the target used when a submission names no printer
const DefaultPrinterName = "Microsoft Print to PDF"

// PrintJob tracks one document submitted to the print service
type PrintJob struct {
	shared.BaseAggregateRoot
	Source         JobSource  // Flow that created the job
	PrinterName    string     // Target printer
	DocumentName   string     // File name of the wrapped HTML document
	IdempotencyKey string     // Client supplied key, empty when none
	RequestedBy    string     // Terminal that submitted the job
	ClientIP       string     // Address the submission came from
	Status         JobStatus  // Current job status
	DocumentPath   string     // Storage path of the stored PDF
	DocumentURL    string     // URL of the stored PDF
	ByteSize       int64      // Size of the stored PDF
	ErrorMessage   string     // Error message if job failed
	PrintedAt      *time.Time // When the PDF was produced
}

// NewPrintJob creates a pending job for the named document
func NewPrintJob(source JobSource, printerName, documentName string) (*PrintJob, error) {
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Invalid print job source: "+source.String())
	}
	if strings.TrimSpace(documentName) == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document name cannot be empty")
	}
	printerName = strings.TrimSpace(printerName)
	if printerName == "" {
		printerName = DefaultPrinterName
	}

	job := &PrintJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Source:            source,
		PrinterName:       printerName,
		DocumentName:      documentName,
		Status:            JobStatusPending,
	}
	job.AddDomainEvent(NewPrintJobCreatedEvent(job))
	return job, nil
}

// SetOrigin records who submitted the job
func (j *PrintJob) SetOrigin(requestedBy, clientIP string) {
	j.RequestedBy = requestedBy
	j.ClientIP = clientIP
	j.Touch()
}

// SetIdempotencyKey records the client supplied key
func (j *PrintJob) SetIdempotencyKey(key string) {
	j.IdempotencyKey = key
	j.Touch()
}

// StartRendering marks the job as rendering
func (j *PrintJob) StartRendering() error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start rendering from status: "+j.Status.String())
	}

	j.Status = JobStatusRendering
	j.Touch()
	j.IncrementVersion()

	j.AddDomainEvent(NewPrintJobStatusChangedEvent(j, JobStatusPending, JobStatusRendering))
	return nil
}

// Complete marks the job as completed with the stored document location
func (j *PrintJob) Complete(documentPath, documentURL string, size int64) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if documentPath == "" || documentURL == "" {
		return shared.NewDomainError("INVALID_DOCUMENT_URL", "Document location cannot be empty")
	}

	oldStatus := j.Status
	j.Status = JobStatusCompleted
	j.DocumentPath = documentPath
	j.DocumentURL = documentURL
	j.ByteSize = size
	now := time.Now()
	j.PrintedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	j.AddDomainEvent(NewPrintJobStatusChangedEvent(j, oldStatus, JobStatusCompleted))
	j.AddDomainEvent(NewPrintJobCompletedEvent(j))
	return nil
}

// Fail marks the job as failed with an error message
func (j *PrintJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	oldStatus := j.Status
	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.Touch()
	j.IncrementVersion()

	j.AddDomainEvent(NewPrintJobStatusChangedEvent(j, oldStatus, JobStatusFailed))
	j.AddDomainEvent(NewPrintJobFailedEvent(j))
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// HasDocument returns true if a PDF has been stored
func (j *PrintJob) HasDocument() bool {
	return j.DocumentPath != ""
}
