package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shelfwise/bookstore/internal/command"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/middleware"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/store/memory"
	"github.com/shelfwise/bookstore/internal/store/mongo"
	"github.com/shelfwise/bookstore/internal/store/postgres"
	"github.com/shelfwise/bookstore/internal/token"
	"github.com/shelfwise/bookstore/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type signupRequest struct {
	Name     string `validate:"required,min=4"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func newSignupCmd(state *cliState) *cobra.Command {
	var req signupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and print its token",
		Long: "Create an account directly in the configured store. The first account " +
			"ever created becomes the admin. The password is read from the terminal, " +
			"or from stdin when it is not a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			req.Password = password
			if errs := middleware.ValidateRequest(req); errs != nil {
				return fmt.Errorf("invalid %s: %s", strings.ToLower(errs[0].Field), errs[0].Message)
			}

			ctx := commandContext(cmd)
			st, err := openStore(ctx, state.cfg)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			hasher, err := utils.NewPasswordHasher(state.cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			tokens, err := token.NewManager(state.cfg.Auth.JWTSecret, state.cfg.Auth.JWTExpires)
			if err != nil {
				return err
			}

			svc := command.NewUserCommandService(st, hasher, tokens, nil, state.log)
			signed, err := svc.SignUp(ctx, cqrs.SignUpCommand{Name: req.Name, Email: req.Email, Password: req.Password})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name (at least 4 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword masks input on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverMongo:
		mg, err := mongo.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			return nil, err
		}
		return mg, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
