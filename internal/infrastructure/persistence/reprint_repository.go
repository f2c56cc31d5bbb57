package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/shared"
	"github.com/erp/receipt/internal/infrastructure/persistence/models"
)

// GormReprintRepository stores the reprint audit trail
type GormReprintRepository struct {
	db *gorm.DB
}

// NewGormReprintRepository creates a new GormReprintRepository
func NewGormReprintRepository(db *gorm.DB) *GormReprintRepository {
	return &GormReprintRepository{db: db}
}

// Save appends an entry
func (r *GormReprintRepository) Save(ctx context.Context, entry *printing.ReprintEntry) error {
	return r.db.WithContext(ctx).Create(models.ReprintLogModelFromDomain(entry)).Error
}

// FindBySale lists the reprints of one sale, newest first
func (r *GormReprintRepository) FindBySale(ctx context.Context, saleID int64) ([]printing.ReprintEntry, error) {
	var rows []models.ReprintLogModel
	if err := r.db.WithContext(ctx).
		Where("venda_id = ?", saleID).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReprintEntries(rows), nil
}

// FindAll lists reprints, newest first unless the filter orders otherwise
func (r *GormReprintRepository) FindAll(ctx context.Context, filter shared.Filter) ([]printing.ReprintEntry, error) {
	query := r.db.WithContext(ctx).
		Order(orderClause(filter.OrderBy, filter.OrderDir, ReprintSortFields, "timestamp"))
	if seller, ok := filter.Filters["vendedor"]; ok {
		query = query.Where("vendedor = ?", seller)
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ReprintLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReprintEntries(rows), nil
}

func toReprintEntries(rows []models.ReprintLogModel) []printing.ReprintEntry {
	entries := make([]printing.ReprintEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries
}

// Ensure GormReprintRepository implements ReprintRepository
var _ printing.ReprintRepository = (*GormReprintRepository)(nil)
