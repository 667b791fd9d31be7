package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/mockview-api/internal/bootstrap"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/platform/redisstore"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/phrazzld/mockview-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	components *bootstrap.Components

	attemptService  service.AttemptService
	questionService service.QuestionService

	// Set when the lane workers run inside the server process.
	taskRunner *task.Runner

	// Called when the HTTP server starts shutting down.
	shutdownHooks []func()
}

// newApplication connects Redis and wires services over an open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if cfg.Orchestration.QueueBackend == bootstrap.QueueMemory && !cfg.Server.EmbeddedWorkers {
		return nil, fmt.Errorf("the in-process queue requires embedded workers")
	}

	rdb, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("redis connection established")

	app, err := assembleApplication(ctx, cfg, logger, db, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	app.redis = rdb
	return app, nil
}

// assembleApplication builds the services over established connections.
func assembleApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	rdb redis.UniversalClient,
) (*application, error) {
	components, err := bootstrap.New(ctx, cfg, logger, db, rdb)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		components: components,
	}

	app.attemptService, err = service.NewAttemptService(
		components.Attempts,
		components.Answers,
		components.Uploads,
		components.Dispatcher,
		components.Scoring,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt service: %w", err)
	}

	app.questionService, err = service.NewQuestionService(
		db,
		components.Questions,
		components.Documents,
		components.QuestionPipeline(),
		cfg.LLM.ValidationAttempts,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create question service: %w", err)
	}

	if cfg.Server.EmbeddedWorkers {
		app.taskRunner, err = components.NewRunner(nil)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the embedded workers, if any, and serves until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if app.taskRunner != nil {
		if err := app.taskRunner.Start(); err != nil {
			app.cleanup()
			return fmt.Errorf("failed to start task runner: %w", err)
		}
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	app.components.Close()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}
	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}
