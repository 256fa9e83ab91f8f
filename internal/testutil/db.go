// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"seva-backend/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB opens a migrated SQLite database in a temp dir. It is closed when the
// test completes.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), database.GormConfig(nil))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}
