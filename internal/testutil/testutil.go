// Package testutil provides shared test helpers for setting up
// repositories and preference stores.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sornchai/sitetrack/internal/prefs"
	"github.com/sornchai/sitetrack/internal/store"
)

// TestSQLite creates a temporary SQLite repository that is
// automatically cleaned up.
func TestSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sitetrack-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPrefs creates a preference store backed by a temp file.
func TestPrefs(t *testing.T) *prefs.Store {
	t.Helper()
	return prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"), slog.Default())
}
