package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PrintJobSortFields defines allowed sort fields for print jobs
var PrintJobSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"printed_at":   true,
	"status":       true,
	"printer_name": true,
	"byte_size":    true,
}

// ReprintSortFields defines allowed sort fields for reprint logs
var ReprintSortFields = map[string]bool{
	"timestamp": true,
	"venda_id":  true,
	"total":     true,
}

// orderClause builds a whitelisted ORDER BY expression
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}
