package main

import (
	"github.com/shelfwise/bookstore/internal/store/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	withMigrator := func(fn func(cmd *cobra.Command, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := state.requirePostgres(); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			pg, err := postgres.Open(ctx, state.cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pg.Close(ctx)

			m, err := postgres.NewMigrator(pg.DB(), state.log)
			if err != nil {
				return err
			}
			return fn(cmd, m)
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			return m.Up(commandContext(cmd))
		}),
	}

	var target int64
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --to",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			return m.Down(commandContext(cmd), target)
		}),
	}
	downCmd.Flags().Int64Var(&target, "to", 0, "target version to roll back to")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			return m.Status(commandContext(cmd))
		}),
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}
