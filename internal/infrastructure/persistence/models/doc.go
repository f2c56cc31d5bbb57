// Package models contains GORM persistence models for the print_jobs and
// reprint_logs tables. Domain entities stay free of ORM tags; the mappers in
// this package convert between the two.
package models
