// Package main implements the entry point for the mock interview API
// server. It serves the REST and WebSocket endpoints, runs schema
// migrations on request and can host the lane workers in-process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/mockview-api/internal/bootstrap"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type serverOptions struct {
	migrate       string
	migrationName string
	migrationsDir string
}

func newRootCommand() *cobra.Command {
	var opts serverOptions
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the mock interview API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, opts); err != nil {
				slog.Error("server exited with error", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version, reset, create) and exit")
	cmd.Flags().StringVar(&opts.migrationName, "name", "", "name of the migration to create")
	cmd.Flags().StringVar(&opts.migrationsDir, "migrations-dir", "internal/platform/postgres/migrations",
		"directory new migrations are written to")
	return cmd
}

func run(ctx context.Context, opts serverOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"embedded_workers", cfg.Server.EmbeddedWorkers,
		"queue_backend", cfg.Orchestration.QueueBackend)

	db, err := bootstrap.OpenDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer closeDB(db, log)
		return runMigrations(ctx, db, opts, log)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		closeDB(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
