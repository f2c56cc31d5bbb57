package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	m, err := New(db, "sqlite", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	var tables int
	require.NoError(t, db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('print_jobs', 'reprint_logs')`,
	).Scan(&tables))
	assert.Equal(t, 2, tables)

	require.NoError(t, m.Up(), "second Up is a no-op")

	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, m.GoTo(2))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	require.NoError(t, m.GoTo(2), "GoTo the current version is a no-op")

	require.NoError(t, m.Down())
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(nil, "mysql", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration driver")
}
