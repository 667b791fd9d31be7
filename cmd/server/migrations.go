package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/mockview-api/internal/platform/postgres"
)

// runMigrations executes the --migrate command against db.
func runMigrations(ctx context.Context, db *sql.DB, opts serverOptions, log *slog.Logger) error {
	log.Info("running migration command", "command", opts.migrate)
	return postgres.Migrate(ctx, db, opts.migrate, opts.migrationName, opts.migrationsDir, log)
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("error closing database connection", "error", err)
	}
}
