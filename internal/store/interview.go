package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
)

// AttemptStore defines persistence for interview attempts.
type AttemptStore interface {
	// Create inserts a new attempt. Returns ErrDuplicate if the ID exists.
	Create(ctx context.Context, attempt *domain.Attempt) error

	// GetByID returns ErrAttemptNotFound when the attempt does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attempt, error)

	// MarkCompleted sets the status to completed and stamps finished_at.
	// Returns ErrAttemptNotFound when the attempt does not exist.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
}

// AnswerStore defines persistence for answers within attempts.
type AnswerStore interface {
	// UpsertAudio records that audio was received for a question, creating
	// the row if needed. Existing transcripts are preserved. Returns
	// domain.ErrInvalidTransition once the answer is scored.
	UpsertAudio(ctx context.Context, answer *domain.Answer) error

	// SaveTranscript stores the transcript and moves the answer to transcribed.
	// Returns ErrAnswerNotFound when no row exists for the pair and
	// domain.ErrInvalidTransition when the answer is already scored.
	SaveTranscript(ctx context.Context, attemptID, questionID uuid.UUID, transcript string) error

	// MarkScored moves every listed answer of the attempt to scored. Missing
	// answers are skipped.
	MarkScored(ctx context.Context, attemptID uuid.UUID, questionIDs []uuid.UUID) error

	// ListByAttempt returns all answers of an attempt.
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*domain.Answer, error)
}

// QuestionStore defines persistence for generated questions.
type QuestionStore interface {
	// CreateBatch inserts questions in one statement per row inside the
	// caller's connection or transaction.
	CreateBatch(ctx context.Context, questions []*domain.Question) error

	// ListByInterview returns questions ordered by position then creation time.
	ListByInterview(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error)

	// WithTx returns a QuestionStore bound to tx.
	WithTx(tx *sql.Tx) QuestionStore
}

// DocumentStore defines persistence for extracted document chunks and their metadata.
type DocumentStore interface {
	SaveChunks(ctx context.Context, chunks []*domain.Chunk) error
	SaveChunkMetadata(ctx context.Context, records []*domain.ChunkMetadataRecord) error
	ListChunksByInterview(ctx context.Context, interviewID uuid.UUID, limit int) ([]*domain.Chunk, error)
	ListMetadataByInterview(ctx context.Context, interviewID uuid.UUID, limit int) ([]*domain.ChunkMetadataRecord, error)

	// WithTx returns a DocumentStore bound to tx.
	WithTx(tx *sql.Tx) DocumentStore
}

// FeedbackStore defines persistence for scoring feedback.
type FeedbackStore interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
}
