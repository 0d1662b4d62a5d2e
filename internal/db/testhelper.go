package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite builds a migrated write/read pool pair on a throwaway file
// under t.TempDir(). Closing is registered on t.Cleanup. Tests that never
// exercise the split can do everything through writeDB.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "reviews.sqlite"), defaultReadPoolSize)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate test sqlite: %v", err)
	}

	return writeDB, readDB
}
