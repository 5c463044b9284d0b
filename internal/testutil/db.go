// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite store in a temp dir, closed at test end.
// A file is used instead of :memory: because every pooled connection would
// otherwise see its own empty database.
func NewDB(t testing.TB, profile string) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger_test.db"),
	})
	require.NoError(t, err, "open test database")
	require.NoError(t, database.AutoMigrate(db, profile), "migrate test database")

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
