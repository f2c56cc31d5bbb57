package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"ASC", "ASC"},
		{"  asc  ", "ASC"},
		{"desc", "DESC"},
		{"ASC; DROP TABLE print_jobs;--", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidateSortOrder(tt.input), tt.input)
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		orderBy  string
		orderDir string
		allowed  map[string]bool
		def      string
		expected string
	}{
		{"whitelisted job field", "printed_at", "asc", PrintJobSortFields, "created_at", "printed_at ASC"},
		{"unknown field falls back", "document_name", "asc", PrintJobSortFields, "created_at", "created_at ASC"},
		{"injection falls back", "status; DROP TABLE x", "", PrintJobSortFields, "created_at", "created_at DESC"},
		{"reprint field", " venda_id ", "DESC", ReprintSortFields, "timestamp", "venda_id DESC"},
		{"empty reprint field", "", "", ReprintSortFields, "timestamp", "timestamp DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, orderClause(tt.orderBy, tt.orderDir, tt.allowed, tt.def))
		})
	}
}
