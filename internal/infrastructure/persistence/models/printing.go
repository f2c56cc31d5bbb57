package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/receipt/internal/domain/printing"
)

// PrintJobModel is the GORM model for print_jobs table
type PrintJobModel struct {
	AggregateModel
	Source         string     `gorm:"type:varchar(20);not null;index"`
	PrinterName    string     `gorm:"column:printer_name;type:varchar(200);not null;index"`
	DocumentName   string     `gorm:"column:document_name;type:varchar(255);not null"`
	IdempotencyKey *string    `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex"`
	RequestedBy    string     `gorm:"column:requested_by;type:varchar(100)"`
	ClientIP       string     `gorm:"column:client_ip;type:varchar(64)"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DocumentPath   string     `gorm:"column:document_path;type:text"`
	DocumentURL    string     `gorm:"column:document_url;type:text"`
	ByteSize       int64      `gorm:"column:byte_size;not null;default:0"`
	ErrorMessage   string     `gorm:"column:error_message;type:text"`
	PrintedAt      *time.Time `gorm:"column:printed_at"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() *printing.PrintJob {
	job := &printing.PrintJob{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Source:            printing.JobSource(m.Source),
		PrinterName:       m.PrinterName,
		DocumentName:      m.DocumentName,
		RequestedBy:       m.RequestedBy,
		ClientIP:          m.ClientIP,
		Status:            printing.JobStatus(m.Status),
		DocumentPath:      m.DocumentPath,
		DocumentURL:       m.DocumentURL,
		ByteSize:          m.ByteSize,
		ErrorMessage:      m.ErrorMessage,
		PrintedAt:         m.PrintedAt,
	}
	if m.IdempotencyKey != nil {
		job.IdempotencyKey = *m.IdempotencyKey
	}
	return job
}

// PrintJobModelFromDomain creates a PrintJobModel from domain PrintJob.
// An empty idempotency key is stored as NULL so the unique index ignores it.
func PrintJobModelFromDomain(j *printing.PrintJob) *PrintJobModel {
	m := &PrintJobModel{
		Source:       string(j.Source),
		PrinterName:  j.PrinterName,
		DocumentName: j.DocumentName,
		RequestedBy:  j.RequestedBy,
		ClientIP:     j.ClientIP,
		Status:       string(j.Status),
		DocumentPath: j.DocumentPath,
		DocumentURL:  j.DocumentURL,
		ByteSize:     j.ByteSize,
		ErrorMessage: j.ErrorMessage,
		PrintedAt:    j.PrintedAt,
	}
	m.FromDomainAggregateRoot(j.BaseAggregateRoot)
	if j.IdempotencyKey != "" {
		key := j.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

// ReprintLogModel is the GORM model for reprint_logs table. Rows are append only.
type ReprintLogModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Timestamp time.Time       `gorm:"column:timestamp;not null;index"`
	Action    string          `gorm:"column:acao;type:varchar(50);not null"`
	SaleID    int64           `gorm:"column:venda_id;not null;index"`
	Seller    string          `gorm:"column:vendedor;type:varchar(200)"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(15,2);not null"`
	ClientIP  string          `gorm:"column:ip;type:varchar(64)"`
}

// TableName returns the table name for ReprintLogModel
func (ReprintLogModel) TableName() string {
	return "reprint_logs"
}

// ToDomain converts ReprintLogModel to domain ReprintEntry
func (m *ReprintLogModel) ToDomain() *printing.ReprintEntry {
	return &printing.ReprintEntry{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Action:    m.Action,
		SaleID:    m.SaleID,
		Seller:    m.Seller,
		Total:     m.Total,
		ClientIP:  m.ClientIP,
	}
}

// ReprintLogModelFromDomain creates a ReprintLogModel from domain ReprintEntry
func ReprintLogModelFromDomain(e *printing.ReprintEntry) *ReprintLogModel {
	return &ReprintLogModel{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Action:    e.Action,
		SaleID:    e.SaleID,
		Seller:    e.Seller,
		Total:     e.Total,
		ClientIP:  e.ClientIP,
	}
}

// All returns every model managed by this package, for AutoMigrate in tests
func All() []any {
	return []any{&PrintJobModel{}, &ReprintLogModel{}}
}
