package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/gosimple/slug"
)

// Drivers lists the dialect directories every migration is created in
var Drivers = []string{"postgres", "sqlite"}

const migrationUpTemplate = `-- Migration: {{.Name}} ({{.Driver}})
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

`

const migrationDownTemplate = `-- Migration: {{.Name}} ({{.Driver}}, rollback)
-- Created: {{.Timestamp}}

`

var (
	upTmpl   = template.Must(template.New("up").Parse(migrationUpTemplate))
	downTmpl = template.Must(template.New("down").Parse(migrationDownTemplate))
)

// MigrationFile is one created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Driver      string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration creates a numbered up/down pair in root/<driver> for every
// driver. The version is the next free sequence number across all drivers.
func CreateMigration(root, name, description string, drivers ...string) ([]MigrationFile, error) {
	if len(drivers) == 0 {
		drivers = Drivers
	}
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	next := 1
	for _, d := range drivers {
		existing, err := ListMigrations(filepath.Join(root, d))
		if err != nil {
			return nil, err
		}
		for _, m := range existing {
			var n int
			if _, err := fmt.Sscanf(m, "%06d_", &n); err == nil && n >= next {
				next = n + 1
			}
		}
	}

	version := fmt.Sprintf("%06d", next)
	timestamp := time.Now().Format(time.RFC3339)
	created := make([]MigrationFile, 0, len(drivers))

	for _, d := range drivers {
		dir := filepath.Join(root, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("failed to create migrations directory: %w", err)
		}
		mf := MigrationFile{
			Version:     version,
			Name:        name,
			Driver:      d,
			Description: description,
			Timestamp:   timestamp,
			UpPath:      filepath.Join(dir, version+"_"+base+".up.sql"),
			DownPath:    filepath.Join(dir, version+"_"+base+".down.sql"),
		}
		if err := writeTemplate(mf.UpPath, upTmpl, mf); err != nil {
			return created, fmt.Errorf("failed to create up migration: %w", err)
		}
		if err := writeTemplate(mf.DownPath, downTmpl, mf); err != nil {
			_ = os.Remove(mf.UpPath)
			return created, fmt.Errorf("failed to create down migration: %w", err)
		}
		created = append(created, mf)
	}
	return created, nil
}

func writeTemplate(path string, tmpl *template.Template, data MigrationFile) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName converts a migration name to snake_case ASCII
func sanitizeName(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

// ListMigrations returns the base names of the up migrations in a directory
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	return names, nil
}
