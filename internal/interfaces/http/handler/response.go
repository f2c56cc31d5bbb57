package handler

import "github.com/erp/receipt/internal/interfaces/http/dto"

// APIResponse is the standard envelope with a typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// CleanupData reports one retention pass triggered over the API
type CleanupData struct {
	Documents int   `json:"documents"`
	Jobs      int64 `json:"jobs"`
}
