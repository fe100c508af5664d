package migrations

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, "file:migrations_up?mode=memory&cache=shared", dbx.PoolOptions{})
	require.NoError(t, err)
	defer db.Close()

	n, err := Up(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// idempotent
	n, err = Up(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, table := range []string{"users", "tools"} {
		var name string
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name))
		assert.Equal(t, table, name)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, first_name, last_name, email, password, role)
		VALUES ('1', 'Ada', 'Lovelace', 'ada@example.com', 'x', 'admin')`)
	require.Error(t, err, "role outside the enum must be rejected")
}

func TestNewProvider_Status(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, "file:migrations_status?mode=memory&cache=shared", dbx.PoolOptions{})
	require.NoError(t, err)
	defer db.Close()

	p, err := NewProvider(db)
	require.NoError(t, err)

	st, err := p.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st, 2)
	for _, s := range st {
		assert.Equal(t, goose.StatePending, s.State)
	}
}

func TestEmbeddedDirsMatch(t *testing.T) {
	pg, err := Migrations.ReadDir(PostgresDir)
	require.NoError(t, err)
	lite, err := Migrations.ReadDir(SQLiteDir)
	require.NoError(t, err)

	require.Equal(t, len(pg), len(lite))
	for i := range pg {
		assert.Equal(t, pg[i].Name(), lite[i].Name())
	}
}
