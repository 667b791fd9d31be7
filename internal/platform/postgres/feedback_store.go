package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// PostgresFeedbackStore implements store.FeedbackStore.
type PostgresFeedbackStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.FeedbackStore = (*PostgresFeedbackStore)(nil)

// NewPostgresFeedbackStore creates a feedback store on db.
func NewPostgresFeedbackStore(db store.DBTX, log *slog.Logger) *PostgresFeedbackStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresFeedbackStore{
		db:     db,
		logger: log.With(slog.String("component", "feedback_store")),
	}
}

// Create implements store.FeedbackStore.
func (s *PostgresFeedbackStore) Create(ctx context.Context, f *domain.Feedback) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, attempt_id, interview_id, user_id, overall_score, feedback_text,
			total_clarity, total_relevance, total_depth, total_structure, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		f.ID, f.AttemptID, f.InterviewID, nullString(f.UserID), f.OverallScore, f.FeedbackText,
		f.TotalClarity, f.TotalRelevance, f.TotalDepth, f.TotalStructure, f.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert feedback",
			slog.String("error", err.Error()),
			slog.String("attempt_id", f.AttemptID.String()))
		return MapError(err)
	}

	log.Info("feedback saved",
		slog.String("attempt_id", f.AttemptID.String()),
		slog.Float64("overall_score", f.OverallScore))
	return nil
}
