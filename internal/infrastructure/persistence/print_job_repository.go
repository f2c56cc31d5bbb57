package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/shared"
	"github.com/erp/receipt/internal/infrastructure/persistence/models"
)

// GormPrintJobRepository implements PrintJobRepository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	var model models.PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the job created for a client key
func (r *GormPrintJobRepository) FindByIdempotencyKey(ctx context.Context, key string) (*printing.PrintJob, error) {
	if strings.TrimSpace(key) == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds jobs matching the filter, newest first by default
func (r *GormPrintJobRepository) FindAll(ctx context.Context, filter printing.PrintJobFilter) ([]printing.PrintJob, error) {
	query := r.applyCriteria(r.db.WithContext(ctx).Model(&models.PrintJobModel{}), filter)
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, PrintJobSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var jobModels []models.PrintJobModel
	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]printing.PrintJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs, nil
}

// Count returns the number of jobs matching the filter
func (r *GormPrintJobRepository) Count(ctx context.Context, filter printing.PrintJobFilter) (int64, error) {
	var count int64
	query := r.applyCriteria(r.db.WithContext(ctx).Model(&models.PrintJobModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts the job or updates every column of an existing one
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printing.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError("ALREADY_EXISTS", "A print job already exists for this idempotency key")
	}
	return err
}

// DeleteOlderThan deletes jobs created before the cutoff
func (r *GormPrintJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PrintJobModel{})
	return result.RowsAffected, result.Error
}

func (r *GormPrintJobRepository) applyCriteria(query *gorm.DB, filter printing.PrintJobFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Source != nil {
		query = query.Where("source = ?", string(*filter.Source))
	}
	if filter.PrinterName != "" {
		query = query.Where("printer_name = ?", filter.PrinterName)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	for key, value := range filter.Filters {
		switch key {
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		case "client_ip":
			query = query.Where("client_ip = ?", value)
		}
	}
	return query
}

// Ensure GormPrintJobRepository implements PrintJobRepository
var _ printing.PrintJobRepository = (*GormPrintJobRepository)(nil)
