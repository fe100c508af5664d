package admincli

import (
	"fmt"

	"github.com/dmitrijs2005/toolshelf/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := migrations.Up(ctx, db)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(a.out, "No new migrations to apply")
				return nil
			}
			fmt.Fprintf(a.out, "Applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			res, err := p.Down(ctx)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(a.out, "Rolled back %s\n", res.Source.Path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			statuses, err := p.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Fprintln(a.out, "Migrations:")
			for _, s := range statuses {
				state := "pending"
				if s.State == goose.StateApplied {
					state = "applied " + s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(a.out, "  %05d %s: %s\n", s.Source.Version, s.Source.Path, state)
			}
			return nil
		},
	})

	return cmd
}
