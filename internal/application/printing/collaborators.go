package printing

import (
	"context"
	"fmt"

	"github.com/erp/receipt/internal/domain/receipt"
)

// Severity classifies a user facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
)

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// Notifier announces dispatch outcomes to the operator
type Notifier interface {
	Notify(ctx context.Context, severity Severity, message string)
}

// SubmitRequest is the payload sent to the print service
type SubmitRequest struct {
	Document    string `json:"html"`
	PrinterName string `json:"impressora,omitempty"`
}

// SubmitResult is the print service answer
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Submitter hands a composed document to the print service. A returned error
// is a transport failure; a rejected submission is reported in SubmitResult.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// DisplaySurface is a caller owned target that can show a document
type DisplaySurface interface {
	IsLive() bool
	Write(markup string) error
	Close() error
}

// Geometry is the size and position of a newly opened surface
type Geometry struct {
	Width      int
	Height     int
	Top        int
	Left       int
	Scrollbars bool
}

// String renders the geometry as a window feature list
func (g Geometry) String() string {
	scroll := "no"
	if g.Scrollbars {
		scroll = "yes"
	}
	return fmt.Sprintf("width=%d,height=%d,top=%d,left=%d,scrollbars=%s", g.Width, g.Height, g.Top, g.Left, scroll)
}

// SurfaceOpener creates surfaces. A nil surface without error means the host
// blocked the request.
type SurfaceOpener interface {
	Open(name string, geometry Geometry) (DisplaySurface, error)
}

// Composer builds the receipt document
type Composer interface {
	Compose(tx *receipt.Transaction, company receipt.Company, cfg receipt.PrintConfig) (receipt.Document, error)
}

// DispatchRecorder observes finished dispatches
type DispatchRecorder interface {
	RecordDispatch(ctx context.Context, mode receipt.PrintMode, state receipt.DispatchState, failure string)
}
