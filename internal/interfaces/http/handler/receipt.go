package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	printingapp "github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/domain/receipt"
)

// ReceiptHandler renders receipts from a sale payload
type ReceiptHandler struct {
	BaseHandler
	receiptService *printingapp.ReceiptService
	logger         *zap.Logger
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *printingapp.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptHandler{receiptService: receiptService, logger: logger}
}

// RenderHTML answers the composed receipt document as text/html
func (h *ReceiptHandler) RenderHTML(c *gin.Context) {
	var req receipt.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.receiptService.RenderHTML(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// RenderPDF answers a native PDF of the receipt
func (h *ReceiptHandler) RenderPDF(c *gin.Context) {
	var req receipt.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	data, err := h.receiptService.RenderPDF(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("receipt PDF failed", zap.Error(err), zap.String("request_id", getRequestID(c)))
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+receipt.FormatSaleSequence(req.SaleID)+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
