// Package migrations embeds the goose SQL migrations, one directory per
// supported dialect, and applies them through a goose provider.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/uptrace/bun"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)

// NewProvider returns a goose provider for the dialect of db.
func NewProvider(db *bun.DB) (*goose.Provider, error) {
	dialect, dir := database.DialectPostgres, PostgresDir
	if dbx.IsSQLite(db) {
		dialect, dir = database.DialectSQLite3, SQLiteDir
	}

	fsys, err := fs.Sub(Migrations, dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, db.DB, fsys)
}

// Up applies every pending migration and returns how many were applied.
func Up(ctx context.Context, db *bun.DB) (int, error) {
	p, err := NewProvider(db)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("migrations up: %w", err)
	}
	return len(results), nil
}
