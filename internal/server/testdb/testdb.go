// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/server/migrations"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// New returns a private, fully migrated database closed on test cleanup.
func New(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := dbx.Open(context.Background(), dsn, dbx.PoolOptions{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := migrations.Up(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
