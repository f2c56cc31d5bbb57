package receipt

import (
	"github.com/erp/receipt/internal/domain/shared"
)

// Error codes for receipt dispatch failures
const (
	CodeCompositionFailed  = "COMPOSITION_FAILED"
	CodeSubmissionFailed   = "SUBMISSION_FAILED"
	CodeSurfaceUnavailable = "SURFACE_UNAVAILABLE"
)

// Sentinels for errors.Is matching
var (
	ErrComposition        = shared.NewDomainError(CodeCompositionFailed, "Receipt could not be composed")
	ErrSubmission         = shared.NewDomainError(CodeSubmissionFailed, "Receipt could not be submitted for printing")
	ErrSurfaceUnavailable = shared.NewDomainError(CodeSurfaceUnavailable, "No display surface available for the receipt")
)

// DispatchError is a terminal failure of one dispatch call
type DispatchError struct {
	*shared.DomainError
	Cause error
}

// Unwrap exposes both the domain code and the underlying cause
func (e *DispatchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.DomainError}
	}
	return []error{e.DomainError, e.Cause}
}

// NewCompositionError reports a malformed transaction
func NewCompositionError(message string) *DispatchError {
	return &DispatchError{DomainError: shared.NewDomainError(CodeCompositionFailed, message)}
}

// NewSubmissionError reports a rejected or failed print submission
func NewSubmissionError(message string, cause error) *DispatchError {
	return &DispatchError{DomainError: shared.NewDomainError(CodeSubmissionFailed, message), Cause: cause}
}

// NewSurfaceUnavailableError reports that no surface could be obtained
func NewSurfaceUnavailableError(cause error) *DispatchError {
	return &DispatchError{
		DomainError: shared.NewDomainError(CodeSurfaceUnavailable, "display surface could not be opened"),
		Cause:       cause,
	}
}
