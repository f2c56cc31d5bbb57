package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	printingapp "github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/domain/shared"
	"github.com/erp/receipt/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader makes a direct print submission replayable
const IdempotencyKeyHeader = "Idempotency-Key"

// PrintHandler handles the print service endpoints
type PrintHandler struct {
	BaseHandler
	printService *printingapp.PrintService
	logger       *zap.Logger
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printService *printingapp.PrintService, logger *zap.Logger) *PrintHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintHandler{
		printService: printService,
		logger:       logger,
	}
}

// =============================================================================
// Direct print
// =============================================================================

// PrintDirect renders a receipt fragment to PDF and records a print job.
// The body is answered in the shape the PDV submitter reads: {success, message}
// or {success:false, error} with status 500.
func (h *PrintHandler) PrintDirect(c *gin.Context) {
	var req printingapp.DirectPrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, printingapp.DirectPrintResponse{Success: false, Error: "HTML não fornecido"})
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	req.RequestedBy = getTerminalID(c)
	req.ClientIP = c.ClientIP()

	resp, err := h.printService.PrintDirect(c.Request.Context(), req)
	if err != nil {
		h.directError(c, err)
		return
	}
	if resp.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	if !resp.Success {
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// directError keeps the flat {success, error} body of the direct print route
func (h *PrintHandler) directError(c *gin.Context, err error) {
	_ = c.Error(err)
	if domainErr, ok := asDomainError(err); ok {
		status := dto.GetHTTPStatus(dto.NormalizeErrorCode(domainErr.Code))
		c.JSON(status, printingapp.DirectPrintResponse{Success: false, Error: domainErr.Message})
		return
	}
	h.logger.Error("direct print failed", zap.Error(err), zap.String("request_id", getRequestID(c)))
	c.JSON(http.StatusInternalServerError, printingapp.DirectPrintResponse{Success: false, Error: err.Error()})
}

// =============================================================================
// Configuration
// =============================================================================

// GetPrintConfig returns the default print configuration
func (h *PrintHandler) GetPrintConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.printService.GetPrintConfig())
}

// ListPrinters returns the configured printers
func (h *PrintHandler) ListPrinters(c *gin.Context) {
	h.Success(c, h.printService.ListPrinters())
}

// =============================================================================
// Reprint
// =============================================================================

// Reprint records a reprint of sale :id and prints it when markup is sent
func (h *PrintHandler) Reprint(c *gin.Context) {
	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || saleID <= 0 {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req printingapp.ReprintRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	req.SaleID = saleID
	req.ClientIP = c.ClientIP()
	if req.Seller == "" {
		req.Seller = getTerminalID(c)
	}

	resp, err := h.printService.Reprint(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !resp.Success {
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListReprints returns audited reprints, optionally filtered by sale_id
func (h *PrintHandler) ListReprints(c *gin.Context) {
	var query struct {
		dto.ListRequest
		SaleID int64 `form:"sale_id" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	if query.SaleID == 0 {
		if id := c.Param("id"); id != "" {
			saleID, err := strconv.ParseInt(id, 10, 64)
			if err != nil || saleID <= 0 {
				h.BadRequest(c, "Invalid sale ID")
				return
			}
			query.SaleID = saleID
		}
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  "timestamp",
		OrderDir: query.OrderDir,
	}
	entries, err := h.printService.ListReprints(c.Request.Context(), query.SaleID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// =============================================================================
// Print jobs
// =============================================================================

// ListJobs returns a page of print jobs
func (h *PrintHandler) ListJobs(c *gin.Context) {
	var req printingapp.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.printService.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Size)
}

// GetJob returns one print job
func (h *PrintHandler) GetJob(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	job, err := h.printService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// GetJobDocument streams the stored PDF of a completed job
func (h *PrintHandler) GetJobDocument(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	rc, job, err := h.printService.OpenJobDocument(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	length := job.ByteSize
	if length <= 0 {
		length = -1
	}
	c.DataFromReader(http.StatusOK, length, "application/pdf", rc, map[string]string{
		"Content-Disposition": `inline; filename="` + job.ID + `.pdf"`,
	})
}

// Cleanup applies the document retention now
func (h *PrintHandler) Cleanup(c *gin.Context) {
	result, err := h.printService.CleanupExpired(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CleanupData{Documents: result.Documents, Jobs: result.Jobs})
}

func (h *PrintHandler) jobID(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return uuid.Nil, false
	}
	return jobID, true
}
