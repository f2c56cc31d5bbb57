package printing

import (
	"time"

	"github.com/erp/receipt/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReprintAction is the action label written to the reprint log
const ReprintAction = "reimpressao"

// ReprintEntry is one audited request to print a past sale again
type ReprintEntry struct {
	ID        uuid.UUID       `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"acao"`
	SaleID    int64           `json:"venda_id"`
	Seller    string          `json:"vendedor"`
	Total     decimal.Decimal `json:"total"`
	ClientIP  string          `json:"ip"`
}

// NewReprintEntry validates and stamps a reprint request
func NewReprintEntry(saleID int64, seller string, total decimal.Decimal, clientIP string) (*ReprintEntry, error) {
	if saleID <= 0 {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID must be positive")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Sale total cannot be negative")
	}
	return &ReprintEntry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Action:    ReprintAction,
		SaleID:    saleID,
		Seller:    seller,
		Total:     total,
		ClientIP:  clientIP,
	}, nil
}
