package telemetry

import (
	"fmt"

	"gorm.io/gorm"
)

type registerFunc func(name string, fn func(*gorm.DB)) error

// registerAround installs hooks before and after every GORM operation
// (create, query, update, delete, row, raw). Either hook may be nil.
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	chains := []struct {
		op     string
		before registerFunc
		after  registerFunc
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, c := range chains {
		if before != nil {
			if err := c.before(fmt.Sprintf("%s:before_%s", prefix, c.op), before); err != nil {
				return fmt.Errorf("failed to register %s before %s: %w", prefix, c.op, err)
			}
		}
		if after != nil {
			if err := c.after(fmt.Sprintf("%s:after_%s", prefix, c.op), after); err != nil {
				return fmt.Errorf("failed to register %s after %s: %w", prefix, c.op, err)
			}
		}
	}
	return nil
}
