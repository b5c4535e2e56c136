package testhelper

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mamadbah2/treadstock/internal/repository/sqlite"
)

// SetupTestDB opens a fresh migrated SQLite database in the test's temp
// directory. The handle is closed via t.Cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("testhelper: failed to open test DB: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
