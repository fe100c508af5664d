// Package dbx holds the small database helpers shared by repositories:
// opening a bun handle for a DSN, running a function inside a transaction
// and classifying driver errors.
package dbx

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx bun.IDB) error {
//	    users := repos.Users(tx)
//	    ...
//	})
func WithTx(ctx context.Context, db *bun.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.IDB) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
