package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// progressReporter writes progress records for one job execution. Write
// failures are logged and do not fail the job.
type progressReporter struct {
	tracker store.ProgressTracker
	key     domain.ResourceKey
	ttl     time.Duration
	logger  *slog.Logger
}

func (p progressReporter) set(ctx context.Context, status domain.ProgressStatus, fraction float64, detail string) {
	record := domain.ProgressRecord{
		Key:         p.key,
		Status:      status,
		Fraction:    domain.ClampFraction(fraction),
		ErrorDetail: detail,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := p.tracker.Set(ctx, record, p.ttl); err != nil {
		p.logger.WarnContext(ctx, "failed to record progress",
			"status", status,
			"fraction", record.Fraction,
			"error", err)
	}
}

func (p progressReporter) processing(ctx context.Context, fraction float64) {
	p.set(ctx, domain.ProgressProcessing, fraction, "")
}

func (p progressReporter) done(ctx context.Context) {
	p.set(ctx, domain.ProgressDone, 1, "")
}

func (p progressReporter) fail(ctx context.Context, err error) {
	p.set(ctx, domain.ProgressError, 0, err.Error())
}
