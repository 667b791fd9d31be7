package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/notify"
	"github.com/phrazzld/mockview-api/internal/platform/filestore"
	"github.com/phrazzld/mockview-api/internal/platform/gemini"
	"github.com/phrazzld/mockview-api/internal/platform/pdf"
	"github.com/phrazzld/mockview-api/internal/platform/postgres"
	"github.com/phrazzld/mockview-api/internal/platform/redisstore"
	"github.com/phrazzld/mockview-api/internal/platform/speech"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/phrazzld/mockview-api/internal/store"
	"github.com/phrazzld/mockview-api/internal/task"
)

// Queue backends.
const (
	QueueRedis  = "redis"
	QueueMemory = "memory"
)

// OpenDB opens the pgx-backed pool and verifies the connection.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established")
	return db, nil
}

// Components is the wired infrastructure of one process.
type Components struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Redis  redis.UniversalClient

	Attempts  store.AttemptStore
	Answers   store.AnswerStore
	Questions store.QuestionStore
	Documents store.DocumentStore
	Feedback  store.FeedbackStore

	Cache    store.ResultCache
	Locks    store.LockManager
	Progress store.ProgressTracker
	Queue    store.JobQueue

	Dispatcher *dispatch.Dispatcher
	Bridge     *notify.Bridge
	Uploads    *filestore.Store

	Chat      *gemini.Completer
	Speech    *speech.Client
	Extractor *pdf.Extractor
	Scoring   *service.ScoringService

	memQueue *task.MemoryQueue
}

// New wires every component over an open database and Redis client. The
// caller keeps ownership of both connections until Close.
func New(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	db *sql.DB,
	rdb redis.UniversalClient,
) (*Components, error) {
	if cfg == nil || db == nil || rdb == nil {
		return nil, fmt.Errorf("config, database and redis client are required")
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Components{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Redis:     rdb,
		Attempts:  postgres.NewPostgresAttemptStore(db, log),
		Answers:   postgres.NewPostgresAnswerStore(db, log),
		Questions: postgres.NewPostgresQuestionStore(db, log),
		Documents: postgres.NewPostgresDocumentStore(db, log),
		Feedback:  postgres.NewPostgresFeedbackStore(db, log),
		Cache:     redisstore.NewCache(rdb, log),
		Locks:     redisstore.NewLockManager(rdb, log),
		Progress:  redisstore.NewProgressTracker(rdb, log),
	}

	switch cfg.Orchestration.QueueBackend {
	case QueueMemory:
		c.memQueue = task.NewMemoryQueue(cfg.Orchestration.QueueSize, log)
		c.Queue = c.memQueue
	case QueueRedis, "":
		c.Queue = redisstore.NewQueue(rdb, cfg.Orchestration.DequeueTimeout, log)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Orchestration.QueueBackend)
	}

	c.Dispatcher = dispatch.New(c.Cache, c.Locks, c.Queue, dispatch.ConfigFromOrchestration(cfg.Orchestration), log)
	c.Bridge = notify.NewBridge(c.Cache, c.Progress, notify.ConfigFromServer(cfg.Server), log)

	var err error
	c.Uploads, err = filestore.New(cfg.Storage.UploadDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload store: %w", err)
	}

	c.Chat, err = gemini.NewCompleter(ctx, log.With("component", "llm_completer"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat completer: %w", err)
	}
	log.Info("chat completer initialized", "model", cfg.LLM.ModelName)

	c.Speech, err = speech.NewClient(cfg.Speech, nil, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	c.Extractor = pdf.NewExtractor(cfg.Storage.UploadDir, log)

	// Scores must be reproducible, so scoring runs at temperature 0 while
	// the feedback text keeps the configured temperature.
	c.Scoring, err = service.NewScoringService(
		c.Questions,
		c.Answers,
		c.Feedback,
		generation.NewPipeline(c.Chat.WithTemperature(0), log),
		c.Chat,
		service.ScoringConfigFrom(cfg),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring service: %w", err)
	}

	return c, nil
}

// InProcessQueue reports whether jobs never leave this process.
func (c *Components) InProcessQueue() bool {
	return c.memQueue != nil
}

// QuestionPipeline returns a pipeline for question and metadata generation.
func (c *Components) QuestionPipeline() *generation.Pipeline {
	return generation.NewPipeline(c.Chat, c.Logger)
}

// Handlers builds one handler per lane.
func (c *Components) Handlers() []task.Handler {
	orch := c.Config.Orchestration
	return []task.Handler{
		task.NewSpeechHandler(c.Speech, c.Cache, orch.CacheTTL, c.Logger),
		task.NewTranscriptionHandler(c.Speech, c.Uploads, c.Answers, c.Cache, orch.CacheTTL, c.Logger),
		task.NewDocumentHandler(
			c.Extractor,
			c.Uploads,
			c.QuestionPipeline(),
			c.Documents,
			c.Progress,
			orch.ProgressTTL,
			c.Config.LLM.ValidationAttempts,
			c.Logger,
		),
		task.NewScoringHandler(c.Scoring, c.Cache, c.Progress, orch.CacheTTL, orch.ProgressTTL, c.Logger),
	}
}

// NewRunner creates a lane runner for lanes, or for every lane when empty.
func (c *Components) NewRunner(lanes []domain.Lane) (*task.Runner, error) {
	runner, err := task.NewRunner(
		c.Queue,
		task.RunnerConfigFromOrchestration(c.Config.Orchestration, lanes),
		c.Logger,
		c.Handlers()...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lane runner: %w", err)
	}
	runner.SetErrorHandler(func(job *domain.Job, err error) {
		c.Logger.Error("job failed",
			"job_id", job.ID,
			"lane", job.Lane,
			"key", job.Key.String(),
			"error", err)
	})
	return runner, nil
}

// Close releases the in-process queue. Connections stay with the caller.
func (c *Components) Close() {
	if c.memQueue != nil {
		c.memQueue.Close()
	}
}
