// internal/dbtest/dbtest.go
//
// Test support: throwaway migrated SQLite databases. Mirrors the
// production openDB/migrate path (WAL, busy timeout, embedded
// migrations) against a file in t.TempDir().

package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phrasecraft/go-server/assets"
)

// Open returns a fully migrated database that is removed with the test.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		t.Fatalf("set pragmas: %v", err)
	}

	names, err := assets.MigrationFiles()
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for _, name := range names {
		text, err := assets.Migration(name)
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		if _, err := db.Exec(text); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
	return db
}
