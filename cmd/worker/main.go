// Package main runs the lane workers out of process. Workers share the
// Redis queue, cache and progress keys with the API server, so any number of
// them can be started against the same deployment.
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
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/platform/redisstore"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Background workers for speech, transcription, document and scoring jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var laneNames []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consume jobs from the given lanes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lanes, err := parseLanes(laneNames)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, lanes); err != nil {
				slog.Error("worker exited with error", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&laneNames, "lanes", nil,
		"lanes to consume (speech, transcription, document_parse, scoring); all when empty")
	return cmd
}

// parseLanes validates lane names and drops duplicates. An empty list means
// every lane.
func parseLanes(names []string) ([]domain.Lane, error) {
	if len(names) == 0 {
		return domain.AllLanes(), nil
	}
	seen := make(map[domain.Lane]bool, len(names))
	lanes := make([]domain.Lane, 0, len(names))
	for _, name := range names {
		lane, err := domain.ParseLane(name)
		if err != nil {
			return nil, err
		}
		if seen[lane] {
			continue
		}
		seen[lane] = true
		lanes = append(lanes, lane)
	}
	return lanes, nil
}

func run(ctx context.Context, lanes []domain.Lane) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Orchestration.QueueBackend == bootstrap.QueueMemory {
		return fmt.Errorf("the in-process queue cannot be shared with a separate worker")
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log = log.With("process", "worker")

	db, err := bootstrap.OpenDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	rdb, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	components, err := bootstrap.New(ctx, cfg, log, db, rdb)
	if err != nil {
		return err
	}
	defer components.Close()

	runner, err := components.NewRunner(lanes)
	if err != nil {
		return err
	}
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	log.Info("worker started", "lanes", runner.Lanes())

	<-ctx.Done()
	log.Info("shutdown signal received, draining workers")
	runner.Stop()
	log.Info("worker stopped")
	return nil
}
