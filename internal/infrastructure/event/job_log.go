package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/shared"
)

// JobLogHandler writes the print job lifecycle to a logger
type JobLogHandler struct {
	logger *zap.Logger
}

// NewJobLogHandler creates a handler logging print job events to logger
func NewJobLogHandler(logger *zap.Logger) *JobLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobLogHandler{logger: logger}
}

// EventTypes returns the print job events
func (h *JobLogHandler) EventTypes() []string {
	return []string{
		printing.EventTypePrintJobCreated,
		printing.EventTypePrintJobStatusChanged,
		printing.EventTypePrintJobCompleted,
		printing.EventTypePrintJobFailed,
	}
}

// Handle logs one event
func (h *JobLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event", event.EventType()),
		zap.String("jobId", event.AggregateID().String()),
		zap.Time("at", event.OccurredAt()),
	}
	switch e := event.(type) {
	case *printing.PrintJobCreatedEvent:
		h.logger.Info("print job created", append(fields,
			zap.String("printer", e.PrinterName),
			zap.String("source", e.Source.String()))...)
	case *printing.PrintJobStatusChangedEvent:
		h.logger.Debug("print job status changed", append(fields,
			zap.String("from", e.OldStatus.String()),
			zap.String("to", e.NewStatus.String()))...)
	case *printing.PrintJobCompletedEvent:
		h.logger.Info("print job completed", append(fields, zap.String("url", e.DocumentURL))...)
	case *printing.PrintJobFailedEvent:
		h.logger.Warn("print job failed", append(fields, zap.String("error", e.ErrorMessage))...)
	default:
		h.logger.Debug("print job event", fields...)
	}
	return nil
}

var _ shared.EventHandler = (*JobLogHandler)(nil)
