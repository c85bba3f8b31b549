package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/spf13/cobra"
)

type cliState struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}
	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Administer the bookstore API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := state.configPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.log = logger.NewWithWriter(cmd.ErrOrStderr(), "bookctl", logger.ParseLevel(cfg.LogLevel))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&state.configPath, "config", "", "path of config file (defaults to $CONFIG_PATH)")

	root.AddCommand(newMigrateCmd(state), newSignupCmd(state))
	return root
}

func (s *cliState) requirePostgres() error {
	if s.cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations only apply to the postgres driver, STORE_DRIVER is %q", s.cfg.Store.Driver)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
