package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

// Migrate runs a goose command ("up", "down", "status", "version", ...)
// against the embedded migrations.
func (s *Store) Migrate(ctx context.Context, command string, args ...string) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}

	log.Info().Str("command", command).Msg("running database migrations")
	if err := goose.RunContext(ctx, command, db, "migrations", args...); err != nil {
		return fmt.Errorf("postgres.Migrate: %s: %w", command, err)
	}
	return nil
}
