package printing

import (
	"github.com/erp/receipt/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypePrintJob names the print job aggregate in events
const AggregateTypePrintJob = "PrintJob"

// Event type constants for PrintJob
const (
	EventTypePrintJobCreated       = "PrintJobCreated"
	EventTypePrintJobStatusChanged = "PrintJobStatusChanged"
	EventTypePrintJobCompleted     = "PrintJobCompleted"
	EventTypePrintJobFailed        = "PrintJobFailed"
)

// PrintJobCreatedEvent is published when a new print job is created
type PrintJobCreatedEvent struct {
	shared.BaseDomainEvent
	JobID       uuid.UUID `json:"job_id"`
	PrinterName string    `json:"printer_name"`
	Source      JobSource `json:"source"`
}

// NewPrintJobCreatedEvent creates a new PrintJobCreatedEvent
func NewPrintJobCreatedEvent(job *PrintJob) *PrintJobCreatedEvent {
	return &PrintJobCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobCreated, AggregateTypePrintJob, job.ID),
		JobID:           job.ID,
		PrinterName:     job.PrinterName,
		Source:          job.Source,
	}
}

// PrintJobStatusChangedEvent is published when a print job's status changes
type PrintJobStatusChangedEvent struct {
	shared.BaseDomainEvent
	JobID     uuid.UUID `json:"job_id"`
	OldStatus JobStatus `json:"old_status"`
	NewStatus JobStatus `json:"new_status"`
}

// NewPrintJobStatusChangedEvent creates a new PrintJobStatusChangedEvent
func NewPrintJobStatusChangedEvent(job *PrintJob, oldStatus, newStatus JobStatus) *PrintJobStatusChangedEvent {
	return &PrintJobStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobStatusChanged, AggregateTypePrintJob, job.ID),
		JobID:           job.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// PrintJobCompletedEvent is published when the job's PDF was stored
type PrintJobCompletedEvent struct {
	shared.BaseDomainEvent
	JobID       uuid.UUID `json:"job_id"`
	DocumentURL string    `json:"document_url"`
}

// NewPrintJobCompletedEvent creates a new PrintJobCompletedEvent
func NewPrintJobCompletedEvent(job *PrintJob) *PrintJobCompletedEvent {
	return &PrintJobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobCompleted, AggregateTypePrintJob, job.ID),
		JobID:           job.ID,
		DocumentURL:     job.DocumentURL,
	}
}

// PrintJobFailedEvent is published when rendering or storage failed
type PrintJobFailedEvent struct {
	shared.BaseDomainEvent
	JobID        uuid.UUID `json:"job_id"`
	ErrorMessage string    `json:"error_message"`
}

// NewPrintJobFailedEvent creates a new PrintJobFailedEvent
func NewPrintJobFailedEvent(job *PrintJob) *PrintJobFailedEvent {
	return &PrintJobFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobFailed, AggregateTypePrintJob, job.ID),
		JobID:           job.ID,
		ErrorMessage:    job.ErrorMessage,
	}
}
