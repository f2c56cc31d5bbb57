package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/receipt"
)

// ErrMeterNil is returned when a metrics type is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// PrintMetrics counts receipt dispatches and direct print jobs
type PrintMetrics struct {
	dispatchTotal *Counter
	jobTotal      *Counter
	jobDuration   *Histogram
	jobBytes      *Counter
	logger        *zap.Logger
}

// NewPrintMetrics registers the receipt instruments on meter
func NewPrintMetrics(meter metric.Meter, logger *zap.Logger) (*PrintMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &PrintMetrics{logger: logger}
	var err error

	m.dispatchTotal, err = NewCounter(meter,
		"receipt_dispatch_total",
		"Receipt dispatches by mode and final state",
		"{dispatch}")
	if err != nil {
		return nil, err
	}

	m.jobTotal, err = NewCounter(meter,
		"receipt_print_job_total",
		"Direct print jobs by source and final status",
		"{job}")
	if err != nil {
		return nil, err
	}

	m.jobDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "receipt_print_job_duration_seconds",
		Description: "Time from submission to final job status",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	m.jobBytes, err = NewCounter(meter,
		"receipt_print_job_bytes_total",
		"Bytes of PDF produced for completed jobs",
		"By")
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDispatch counts one finished dispatch. failure is the error code, or
// empty when the dispatch succeeded.
func (m *PrintMetrics) RecordDispatch(ctx context.Context, mode receipt.PrintMode, state receipt.DispatchState, failure string) {
	attrs := []attribute.KeyValue{
		AttrPrintMode.String(mode.Canonical().String()),
		AttrDispatchState.String(state.String()),
	}
	if failure != "" {
		attrs = append(attrs, AttrFailure.String(failure))
	}
	m.dispatchTotal.Inc(ctx, attrs...)
}

// RecordJob counts a print job that reached a terminal status
func (m *PrintMetrics) RecordJob(ctx context.Context, job *printing.PrintJob, elapsed time.Duration) {
	if job == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrJobSource.String(job.Source.String()),
		AttrJobStatus.String(job.Status.String()),
		AttrPrinter.String(job.PrinterName),
	}
	m.jobTotal.Inc(ctx, attrs...)
	m.jobDuration.RecordDuration(ctx, elapsed, attrs...)
	if job.Status == printing.JobStatusCompleted && job.ByteSize > 0 {
		m.jobBytes.Add(ctx, job.ByteSize, AttrPrinter.String(job.PrinterName))
	}
	if job.Status == printing.JobStatusFailed {
		m.logger.Debug("print job failure recorded",
			zap.String("jobId", job.ID.String()),
			zap.String("error", job.ErrorMessage))
	}
}
