package printing

import (
	"context"
	"time"

	"github.com/erp/receipt/internal/domain/shared"
	"github.com/google/uuid"
)

// PrintJobRepository defines the interface for print job persistence
type PrintJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindByIdempotencyKey finds the job created for a client key
	FindByIdempotencyKey(ctx context.Context, key string) (*PrintJob, error)

	// FindAll finds jobs matching the filter
	FindAll(ctx context.Context, filter PrintJobFilter) ([]PrintJob, error)

	// Count returns the number of jobs matching the filter
	Count(ctx context.Context, filter PrintJobFilter) (int64, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *PrintJob) error

	// DeleteOlderThan deletes jobs created before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReprintRepository defines the interface for reprint audit persistence
type ReprintRepository interface {
	// Save appends an entry
	Save(ctx context.Context, entry *ReprintEntry) error

	// FindBySale lists the reprints of one sale, newest first
	FindBySale(ctx context.Context, saleID int64) ([]ReprintEntry, error)

	// FindAll lists reprints, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]ReprintEntry, error)
}

// PrintJobFilter extends the standard filter with print job specific criteria
type PrintJobFilter struct {
	shared.Filter
	Status      *JobStatus // Filter by status
	Source      *JobSource // Filter by source
	PrinterName string     // Filter by printer
	Since       *time.Time // Created at or after
}
