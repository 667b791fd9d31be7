package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// PostgresQuestionStore implements store.QuestionStore.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// NewPostgresQuestionStore creates a question store on db.
func NewPostgresQuestionStore(db store.DBTX, log *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresQuestionStore{
		db:     db,
		logger: log.With(slog.String("component", "question_store")),
	}
}

// WithTx implements store.QuestionStore.
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{db: tx, logger: s.logger}
}

// CreateBatch implements store.QuestionStore.
func (s *PostgresQuestionStore) CreateBatch(ctx context.Context, questions []*domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, q := range questions {
		if err := q.Validate(); err != nil {
			log.Warn("question validation failed",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return err
		}
		keyPoints, err := marshalStrings(q.KeyPoints)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO questions (id, interview_id, user_id, question, difficulty, topic, type, ideal_answer, key_points, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			q.ID, q.InterviewID, q.UserID, q.Text, q.Difficulty, q.Topic, q.Type,
			q.IdealAnswer, keyPoints, q.Position, q.CreatedAt,
		); err != nil {
			log.Error("failed to insert question",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return MapError(err)
		}
	}

	log.Info("questions created", slog.Int("count", len(questions)))
	return nil
}

// ListByInterview implements store.QuestionStore.
func (s *PostgresQuestionStore) ListByInterview(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, interview_id, user_id, question, difficulty, topic, type, ideal_answer, key_points, position, created_at
		FROM questions
		WHERE interview_id = $1
		ORDER BY position, created_at
	`, interviewID)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		var (
			q         domain.Question
			keyPoints []byte
		)
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.UserID, &q.Text, &q.Difficulty, &q.Topic,
			&q.Type, &q.IdealAnswer, &keyPoints, &q.Position, &q.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		if q.KeyPoints, err = unmarshalStrings(keyPoints); err != nil {
			return nil, err
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return questions, nil
}
