// Package admincli implements toolshelf-cli, the operator tool for schema
// migrations and owner provisioning.
package admincli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/toolshelf/internal/cryptox"
	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/server/config"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// hasherParams is a seam so tests can use cheap argon2 settings.
var hasherParams = cryptox.DefaultParams

type app struct {
	in        io.Reader
	out       io.Writer
	lookupEnv func(string) (string, bool)
	dsn       string
}

// NewRootCmd builds the command tree. in and out replace the terminal;
// lookupEnv resolves DATABASE_URL and the POSTGRES_* variables.
func NewRootCmd(in io.Reader, out io.Writer, lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{in: in, out: out, lookupEnv: lookupEnv}

	root := &cobra.Command{
		Use:           "toolshelf-cli",
		Short:         "toolshelf administration",
		Long:          `toolshelf-cli applies database migrations and provisions owner accounts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "database DSN (defaults to DATABASE_URL or POSTGRES_*)")

	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.createOwnerCmd())
	return root
}

// openDB resolves the DSN from the flag or the environment and connects.
func (a *app) openDB(ctx context.Context) (*bun.DB, error) {
	dsn := a.dsn
	if dsn == "" {
		cfg, err := config.FromEnv(a.lookupEnv)
		if err != nil {
			return nil, err
		}
		dsn = cfg.DatabaseDSN
	}

	db, err := dbx.Open(ctx, dsn, dbx.DefaultPoolOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
