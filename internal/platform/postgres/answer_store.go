package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// PostgresAnswerStore implements store.AnswerStore. Status updates only
// match rows whose current status may advance to the new one; an update
// that matches nothing reports domain.ErrInvalidTransition, or
// store.ErrAnswerNotFound when the row is missing.
type PostgresAnswerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AnswerStore = (*PostgresAnswerStore)(nil)

// NewPostgresAnswerStore creates an answer store on db.
func NewPostgresAnswerStore(db store.DBTX, log *slog.Logger) *PostgresAnswerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresAnswerStore{
		db:     db,
		logger: log.With(slog.String("component", "answer_store")),
	}
}

// UpsertAudio implements store.AnswerStore. A new recording is accepted
// while the answer can still take a transcript; an existing transcribed
// answer keeps its status until the new transcript arrives.
func (s *PostgresAnswerStore) UpsertAudio(ctx context.Context, answer *domain.Answer) error {
	guard, guardArgs := statusGuard("answers.status", domain.AnswerTranscribed, 8)
	args := append([]any{
		answer.ID,
		answer.AttemptID,
		answer.QuestionID,
		answer.InterviewID,
		nullString(answer.UserID),
		string(domain.AnswerAudioReceived),
		answer.UpdatedAt,
	}, guardArgs...)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, attempt_id, question_id, interview_id, user_id, has_audio, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $7)
		ON CONFLICT (attempt_id, question_id) DO UPDATE
		SET has_audio = TRUE,
			status = CASE WHEN answers.status = 'unanswered' THEN EXCLUDED.status ELSE answers.status END,
			updated_at = EXCLUDED.updated_at
		WHERE `+guard, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert answer audio",
			slog.String("error", err.Error()),
			slog.String("attempt_id", answer.AttemptID.String()),
			slog.String("question_id", answer.QuestionID.String()))
		return MapError(err)
	}
	if err := checkRowsAffected(result, errNoRowMatched); err != nil {
		if errors.Is(err, errNoRowMatched) {
			err = s.transitionError(ctx, answer.AttemptID, answer.QuestionID, domain.AnswerAudioReceived)
		}
		return fmt.Errorf("record audio for %s/%s: %w", answer.AttemptID, answer.QuestionID, err)
	}
	return nil
}

// SaveTranscript implements store.AnswerStore.
func (s *PostgresAnswerStore) SaveTranscript(ctx context.Context, attemptID, questionID uuid.UUID, transcript string) error {
	guard, guardArgs := statusGuard("status", domain.AnswerTranscribed, 5)
	args := append([]any{attemptID, questionID, transcript, string(domain.AnswerTranscribed)}, guardArgs...)

	result, err := s.db.ExecContext(ctx, `
		UPDATE answers
		SET transcript = $3, status = $4, updated_at = NOW()
		WHERE attempt_id = $1 AND question_id = $2 AND `+guard, args...)
	if err != nil {
		return MapError(err)
	}
	if err := checkRowsAffected(result, errNoRowMatched); err != nil {
		if errors.Is(err, errNoRowMatched) {
			err = s.transitionError(ctx, attemptID, questionID, domain.AnswerTranscribed)
		}
		return fmt.Errorf("save transcript for %s/%s: %w", attemptID, questionID, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("transcript saved",
		slog.String("attempt_id", attemptID.String()),
		slog.String("question_id", questionID.String()),
		slog.Int("transcript_length", len(transcript)))
	return nil
}

// MarkScored implements store.AnswerStore. Answers deleted since they
// were listed are skipped.
func (s *PostgresAnswerStore) MarkScored(ctx context.Context, attemptID uuid.UUID, questionIDs []uuid.UUID) error {
	guard, guardArgs := statusGuard("status", domain.AnswerScored, 4)
	for _, qid := range questionIDs {
		args := append([]any{attemptID, qid, string(domain.AnswerScored)}, guardArgs...)
		result, err := s.db.ExecContext(ctx, `
			UPDATE answers
			SET status = $3, updated_at = NOW()
			WHERE attempt_id = $1 AND question_id = $2 AND `+guard, args...)
		if err != nil {
			return MapError(err)
		}
		if err := checkRowsAffected(result, errNoRowMatched); err != nil {
			if errors.Is(err, errNoRowMatched) {
				err = s.transitionError(ctx, attemptID, qid, domain.AnswerScored)
			}
			if errors.Is(err, store.ErrAnswerNotFound) {
				continue
			}
			return fmt.Errorf("mark %s/%s scored: %w", attemptID, qid, err)
		}
	}
	return nil
}

// ListByAttempt implements store.AnswerStore.
func (s *PostgresAnswerStore) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*domain.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, attempt_id, question_id, interview_id, user_id, transcript, has_audio, status, created_at, updated_at
		FROM answers
		WHERE attempt_id = $1
		ORDER BY created_at
	`, attemptID)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var answers []*domain.Answer
	for rows.Next() {
		var (
			a      domain.Answer
			userID sql.NullString
			status string
		)
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.InterviewID, &userID,
			&a.Transcript, &a.HasAudio, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		a.UserID = userID.String
		a.Status = domain.AnswerStatus(status)
		answers = append(answers, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return answers, nil
}

// errNoRowMatched marks a guarded update that changed nothing.
var errNoRowMatched = errors.New("no row matched")

// statusGuard renders a condition on column that holds for every status
// allowed to move to next. Placeholders are numbered from first.
func statusGuard(column string, next domain.AnswerStatus, first int) (string, []any) {
	sources := next.Sources()
	marks := make([]string, len(sources))
	args := make([]any, len(sources))
	for i, status := range sources {
		marks[i] = fmt.Sprintf("$%d", first+i)
		args[i] = string(status)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")), args
}

// transitionError explains why a guarded status update matched no row.
func (s *PostgresAnswerStore) transitionError(ctx context.Context, attemptID, questionID uuid.UUID, next domain.AnswerStatus) error {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM answers WHERE attempt_id = $1 AND question_id = $2`,
		attemptID, questionID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrAnswerNotFound
	case err != nil:
		return MapError(err)
	}
	if err := domain.AnswerStatus(status).CheckTransition(next); err != nil {
		return err
	}
	return fmt.Errorf("%w: answer %s/%s changed concurrently", domain.ErrInvalidTransition, attemptID, questionID)
}
