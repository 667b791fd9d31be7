package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// PostgresAttemptStore implements store.AttemptStore.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// NewPostgresAttemptStore creates an attempt store on db.
func NewPostgresAttemptStore(db store.DBTX, log *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresAttemptStore{
		db:     db,
		logger: log.With(slog.String("component", "attempt_store")),
	}
}

// Create inserts a new in-progress attempt.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (attempt_id, interview_id, user_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		attempt.ID,
		attempt.InterviewID,
		nullString(attempt.UserID),
		string(attempt.Status),
		attempt.StartedAt,
	)
	if err != nil {
		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return MapError(err)
	}

	log.Info("attempt created",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("interview_id", attempt.InterviewID.String()))
	return nil
}

// GetByID returns the attempt or store.ErrAttemptNotFound.
func (s *PostgresAttemptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	var (
		a        domain.Attempt
		userID   sql.NullString
		status   string
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT attempt_id, interview_id, user_id, status, started_at, finished_at
		FROM attempts
		WHERE attempt_id = $1
	`, id).Scan(&a.ID, &a.InterviewID, &userID, &status, &a.StartedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAttemptNotFound
		}
		return nil, MapError(err)
	}

	a.UserID = userID.String
	a.Status = domain.AttemptStatus(status)
	if finished.Valid {
		t := finished.Time
		a.FinishedAt = &t
	}
	return &a, nil
}

// MarkCompleted stamps finished_at and sets the status to completed. It is
// idempotent for an already completed attempt.
func (s *PostgresAttemptStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE attempts
		SET status = $2, finished_at = COALESCE(finished_at, NOW())
		WHERE attempt_id = $1
	`, id, string(domain.AttemptCompleted))
	if err != nil {
		return MapError(err)
	}
	if err := checkRowsAffected(result, store.ErrAttemptNotFound); err != nil {
		return fmt.Errorf("mark attempt %s completed: %w", id, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("attempt completed",
		slog.String("attempt_id", id.String()))
	return nil
}
