package printing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/receipt/internal/domain/receipt"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// User facing messages
const (
	MessageSubmitted         = "Comprovante enviado para impressão!"
	MessageSubmitFailed      = "Erro ao imprimir"
	MessageConnectionFailed  = "Erro ao conectar com o servidor"
	MessageSurfaceBlocked    = "Permita popups para ver o comprovante!"
	MessageCompositionFailed = "Erro ao gerar comprovante"
)

// SurfaceName is the name given to surfaces opened by the dispatcher
const SurfaceName = "Comprovante"

// DefaultSurfaceGeometry is used when the caller supplies no live surface
var DefaultSurfaceGeometry = Geometry{Width: 900, Height: 600, Top: 100, Left: 100, Scrollbars: true}

// DispatchRequest is one receipt to print
type DispatchRequest struct {
	Transaction *receipt.Transaction
	Company     receipt.Company
	Config      receipt.PrintConfig
	// Surface is an optional pre-opened surface owned by the caller
	Surface DisplaySurface
}

func (r DispatchRequest) printerName() string {
	if r.Transaction == nil {
		return ""
	}
	return r.Transaction.PrinterName
}

// Outcome reports how a dispatch ended
type Outcome struct {
	State     receipt.DispatchState
	Mode      receipt.PrintMode
	Submitted bool
	Presented bool
	Document  receipt.Document
	Err       error
}

// OK returns true if the document reached the printer or a surface
func (o Outcome) OK() bool {
	return o.Err == nil && (o.Submitted || o.Presented)
}

// Dispatcher composes receipts and routes them to the print service or to a
// display surface depending on the print mode. It keeps no state between calls.
type Dispatcher struct {
	composer  Composer
	submitter Submitter
	opener    SurfaceOpener
	notifier  Notifier
	recorder  DispatchRecorder
	geometry  Geometry
	logger    *zap.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithRecorder reports every finished dispatch to r
func WithRecorder(r DispatchRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithGeometry overrides the geometry of newly opened surfaces
func WithGeometry(g Geometry) DispatcherOption {
	return func(d *Dispatcher) { d.geometry = g }
}

// NewDispatcher creates a new Dispatcher. A nil notifier falls back to banners.
func NewDispatcher(
	composer Composer,
	submitter Submitter,
	opener SurfaceOpener,
	notifier Notifier,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewBannerNotifier(nil)
	}
	d := &Dispatcher{
		composer:  composer,
		submitter: submitter,
		opener:    opener,
		notifier:  notifier,
		geometry:  DefaultSurfaceGeometry,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// dispatchRun tracks the state of a single Dispatch call
type dispatchRun struct {
	state  receipt.DispatchState
	logger *zap.Logger
}

func (r *dispatchRun) advance(next receipt.DispatchState) {
	if !r.state.CanTransitionTo(next) {
		r.logger.Error("invalid dispatch transition",
			zap.String("from", r.state.String()),
			zap.String("to", next.String()))
	}
	r.state = next
}

// Dispatch composes the receipt and prints it. Every failure is announced
// through the notifier exactly once and returned in the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) Outcome {
	started := time.Now()
	mode := req.Config.Mode
	run := &dispatchRun{state: receipt.StateIdle, logger: d.logger.With(zap.String("mode", mode.String()))}
	out := d.dispatch(ctx, run, req)
	out.State = run.state
	out.Mode = mode

	fields := []zap.Field{
		zap.String("mode", mode.String()),
		zap.String("state", out.State.String()),
		zap.Duration("elapsed", time.Since(started)),
	}
	failure := ""
	if out.Err != nil {
		failure = failureCode(out.Err)
		d.logger.Warn("receipt dispatch failed", append(fields, zap.Error(out.Err))...)
	} else {
		d.logger.Info("receipt dispatched", fields...)
	}
	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, mode, out.State, failure)
	}
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, run *dispatchRun, req DispatchRequest) Outcome {
	run.advance(receipt.StateComposing)
	doc, err := d.composer.Compose(req.Transaction, req.Company, req.Config)
	if err != nil {
		run.advance(receipt.StateFailed)
		var dispatchErr *receipt.DispatchError
		if !errors.As(err, &dispatchErr) {
			err = receipt.NewCompositionError(err.Error())
		}
		d.notifier.Notify(ctx, SeverityDanger, MessageCompositionFailed+": "+err.Error())
		return Outcome{Err: err}
	}

	run.advance(receipt.StateDispatching)
	if req.Config.Mode.IsAutomatic() {
		return d.submit(ctx, run, req, doc)
	}
	return d.present(ctx, run, req, doc)
}

// submit is the automatic path
func (d *Dispatcher) submit(ctx context.Context, run *dispatchRun, req DispatchRequest, doc receipt.Document) Outcome {
	if req.Surface != nil && req.Surface.IsLive() {
		if err := req.Surface.Close(); err != nil {
			run.logger.Debug("failed to close display surface", zap.Error(err))
		}
	}

	if d.submitter == nil {
		run.advance(receipt.StateFailed)
		d.notifier.Notify(ctx, SeverityDanger, MessageConnectionFailed)
		return Outcome{Document: doc, Err: receipt.NewSubmissionError("no print service configured", nil)}
	}

	result, err := d.submitter.Submit(ctx, SubmitRequest{
		Document:    doc.String(),
		PrinterName: req.printerName(),
	})
	if err != nil {
		run.advance(receipt.StateFailed)
		d.notifier.Notify(ctx, SeverityDanger, MessageConnectionFailed)
		return Outcome{Document: doc, Err: receipt.NewSubmissionError("print service unreachable", err)}
	}
	if !result.Success {
		run.advance(receipt.StateFailed)
		message := MessageSubmitFailed
		if result.Error != "" {
			message += ": " + result.Error
		}
		d.notifier.Notify(ctx, SeverityDanger, message)
		return Outcome{Document: doc, Err: receipt.NewSubmissionError(orDefault(result.Error, "print service rejected the document"), nil)}
	}

	run.advance(receipt.StateAutoSubmitted)
	d.notifier.Notify(ctx, SeveritySuccess, MessageSubmitted)
	run.advance(receipt.StateDone)
	return Outcome{Document: doc, Submitted: true}
}

// present is the dialog path
func (d *Dispatcher) present(ctx context.Context, run *dispatchRun, req DispatchRequest, doc receipt.Document) Outcome {
	doc = infra.InjectPrintTrigger(doc, req.Config.Mode)

	surface := req.Surface
	if surface == nil || !surface.IsLive() {
		opened, err := d.openSurface()
		if err != nil {
			run.advance(receipt.StateFailed)
			d.notifier.Notify(ctx, SeverityWarning, MessageSurfaceBlocked)
			return Outcome{Document: doc, Err: receipt.NewSurfaceUnavailableError(err)}
		}
		surface = opened
	}

	if err := surface.Write(doc.String()); err != nil {
		run.advance(receipt.StateFailed)
		d.notifier.Notify(ctx, SeverityWarning, MessageSurfaceBlocked)
		return Outcome{Document: doc, Err: receipt.NewSurfaceUnavailableError(err)}
	}

	run.advance(receipt.StateDialogPresented)
	run.advance(receipt.StateDone)
	return Outcome{Document: doc, Presented: true}
}

var errSurfaceBlocked = errors.New("surface creation blocked")

func (d *Dispatcher) openSurface() (DisplaySurface, error) {
	if d.opener == nil {
		return nil, errSurfaceBlocked
	}
	surface, err := d.opener.Open(SurfaceName, d.geometry)
	if err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, errSurfaceBlocked
	}
	return surface, nil
}

func failureCode(err error) string {
	var dispatchErr *receipt.DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Code
	}
	return "UNKNOWN"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
