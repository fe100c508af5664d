// Package repomanager vends repositories bound to a database handle or a
// transaction, and applies schema migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/toolshelf/internal/server/migrations"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/tools"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/users"
	"github.com/uptrace/bun"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *bun.DB) (int, error)
	Users(db bun.IDB) users.Repository
	Tools(db bun.IDB) tools.Repository
}

// BunRepositoryManager vends bun-backed repositories. It works for both
// PostgreSQL and SQLite handles.
type BunRepositoryManager struct{}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// Users returns a users.Repository bound to db, which may be a transaction.
func (m *BunRepositoryManager) Users(db bun.IDB) users.Repository {
	return users.NewBunRepository(db)
}

// Tools returns a tools.Repository bound to db, which may be a transaction.
func (m *BunRepositoryManager) Tools(db bun.IDB) tools.Repository {
	return tools.NewBunRepository(db)
}

// RunMigrations applies the embedded migrations for the dialect of db and
// returns how many were applied.
func (m *BunRepositoryManager) RunMigrations(ctx context.Context, db *bun.DB) (int, error) {
	return migrateUp(ctx, db)
}

func NewBunRepositoryManager() RepositoryManager {
	return &BunRepositoryManager{}
}
