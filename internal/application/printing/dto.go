package printing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Direct print DTOs
// =============================================================================

// DirectPrintRequest is a rendered receipt fragment to print
type DirectPrintRequest struct {
	HTML           string `json:"html" binding:"required"`
	PrinterName    string `json:"impressora"`
	IdempotencyKey string `json:"-"`
	RequestedBy    string `json:"-"`
	ClientIP       string `json:"-"`
}

// DirectPrintResponse is the answer returned to the submitter
type DirectPrintResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	JobID    string `json:"job_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Replayed bool   `json:"replayed,omitempty"`
}

// =============================================================================
// Print configuration DTOs
// =============================================================================

// PrintConfigData is the print configuration offered to front ends
type PrintConfigData struct {
	Mode              string `json:"tipo"`
	PaperSize         string `json:"papel"`
	Copies            int    `json:"vias"`
	IncludeClientCopy bool   `json:"copiar"`
	FooterMessage     string `json:"mensagem"`
	PrinterID         int    `json:"impressora_id"`
	PrinterName       string `json:"impressora_nome"`
}

// PrintConfigResponse wraps the configuration the way the front end expects
type PrintConfigResponse struct {
	Success bool            `json:"success"`
	Config  PrintConfigData `json:"config"`
}

// PrinterResponse represents a configured printer
type PrinterResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"nome"`
	Paper   string `json:"papel"`
	Default bool   `json:"padrao"`
}

// =============================================================================
// Reprint DTOs
// =============================================================================

// ReprintRequest is a request to print a past sale again
type ReprintRequest struct {
	SaleID      int64           `json:"-"`
	Seller      string          `json:"vendedor"`
	Total       decimal.Decimal `json:"total"`
	HTML        string          `json:"html"`
	PrinterName string          `json:"impressora"`
	ClientIP    string          `json:"-"`
}

// ReprintResponse confirms a reprint request
type ReprintResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id,omitempty"`
}

// ReprintEntryResponse is one audited reprint
type ReprintEntryResponse struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"acao"`
	SaleID    int64           `json:"venda_id"`
	Seller    string          `json:"vendedor"`
	Total     decimal.Decimal `json:"total"`
	ClientIP  string          `json:"ip"`
}

// =============================================================================
// Print Job DTOs
// =============================================================================

// ListJobsRequest represents a request to list print jobs
type ListJobsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at status printer_name"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   string `form:"status"`
	Source   string `form:"source"`
	Printer  string `form:"printer"`
}

// PrintJobResponse represents a print job response
type PrintJobResponse struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	PrinterName  string     `json:"printer_name"`
	DocumentName string     `json:"document_name"`
	Status       string     `json:"status"`
	DocumentURL  string     `json:"document_url,omitempty"`
	ByteSize     int64      `json:"byte_size,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RequestedBy  string     `json:"requested_by,omitempty"`
	ClientIP     string     `json:"client_ip,omitempty"`
	PrintedAt    *time.Time `json:"printed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ListJobsResponse represents a paginated list of print jobs
type ListJobsResponse struct {
	Items []PrintJobResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// CleanupResult summarises one retention pass
type CleanupResult struct {
	Documents int   `json:"documents"`
	Jobs      int64 `json:"jobs"`
}
