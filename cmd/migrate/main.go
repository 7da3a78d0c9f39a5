// Command migrate manages the database schema and bootstraps the first
// super administrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/config"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/store/postgres"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the HR database schema",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		gooseCmd("up", "Apply all pending migrations", cobra.NoArgs),
		gooseCmd("down", "Roll back the latest migration", cobra.NoArgs),
		gooseCmd("status", "Print the migration status", cobra.NoArgs),
		gooseCmd("up-to", "Apply migrations up to VERSION", cobra.ExactArgs(1)),
		gooseCmd("down-to", "Roll back migrations down to VERSION", cobra.ExactArgs(1)),
		seedAdminCmd(),
	)
	return root
}

func gooseCmd(command, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *postgres.Store) error {
				return store.Migrate(ctx, command, args...)
			})
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the initial SUPER_ADMIN account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("HRM_ADMIN_PASSWORD")
			}
			admin, err := newSuperAdmin(email, name, password)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *postgres.Store) error {
				if err := store.Users().Create(ctx, admin); err != nil {
					if errors.Is(err, domain.ErrConflict) {
						return fmt.Errorf("user %s already exists", admin.Email)
					}
					return err
				}
				log.Info().Int64("user_id", admin.ID).Str("email", admin.Email).Msg("super admin created")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email of the administrator")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password (defaults to $HRM_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// newSuperAdmin validates the bootstrap input and hashes the password.
func newSuperAdmin(email, name, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	verr := &domain.ValidationError{}
	if !strings.Contains(email, "@") {
		verr.Add("email", "must be a valid email address")
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	if len(password) < auth.MinPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLen))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		Active:       true,
	}, nil
}

func withStore(ctx context.Context, fn func(context.Context, *postgres.Store) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	store, err := postgres.New(ctx, cfg.DSN(), int32(cfg.MaxConns)) //nolint:gosec // bounds checked by config
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}
