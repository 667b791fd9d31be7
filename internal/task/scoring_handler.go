package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// AttemptScorer scores a completed attempt. progress is called after each
// item is scored.
type AttemptScorer interface {
	ScoreAttempt(
		ctx context.Context,
		attemptID, interviewID uuid.UUID,
		userID string,
		progress func(done, total int),
	) (*domain.ScoringReport, error)
}

// ScoringHandler runs attempt scoring off the request path and caches the
// resulting report.
type ScoringHandler struct {
	scorer      AttemptScorer
	cache       store.ResultCache
	progress    store.ProgressTracker
	cacheTTL    time.Duration
	progressTTL time.Duration
	logger      *slog.Logger
}

var _ Handler = (*ScoringHandler)(nil)

// NewScoringHandler creates a handler for the scoring lane.
func NewScoringHandler(
	scorer AttemptScorer,
	cache store.ResultCache,
	progress store.ProgressTracker,
	cacheTTL, progressTTL time.Duration,
	log *slog.Logger,
) *ScoringHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ScoringHandler{
		scorer:      scorer,
		cache:       cache,
		progress:    progress,
		cacheTTL:    cacheTTL,
		progressTTL: progressTTL,
		logger:      log.With("component", "scoring_handler"),
	}
}

// Lane implements Handler.
func (h *ScoringHandler) Lane() domain.Lane { return domain.LaneScoring }

// Handle implements Handler.
func (h *ScoringHandler) Handle(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)
	progress := progressReporter{tracker: h.progress, key: job.Key, ttl: h.progressTTL, logger: log}

	report, err := h.score(ctx, job, progress)
	if err != nil {
		progress.fail(ctx, err)
		return err
	}

	progress.done(ctx)
	log.InfoContext(ctx, "attempt scored",
		"attempt_id", report.AttemptID,
		"overall_score", report.OverallScore,
		"items", len(report.Items))
	return nil
}

func (h *ScoringHandler) score(ctx context.Context, job *domain.Job, progress progressReporter) (*domain.ScoringReport, error) {
	var input domain.ScoringInput
	if err := job.DecodeInput(&input); err != nil {
		return nil, fmt.Errorf("invalid scoring job input: %w", err)
	}

	progress.processing(ctx, 0)

	report, err := h.scorer.ScoreAttempt(ctx, input.AttemptID, input.InterviewID, input.UserID,
		func(done, total int) {
			if total > 0 && done < total {
				progress.processing(ctx, float64(done)/float64(total))
			}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to score attempt: %w", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring report: %w", err)
	}
	if err := h.cache.Put(ctx, job.Key, payload, h.cacheTTL); err != nil {
		return nil, fmt.Errorf("failed to cache scoring report: %w", err)
	}
	return report, nil
}
