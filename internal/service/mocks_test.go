package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAttemptStore is a mock implementation of store.AttemptStore
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockAttemptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockAnswerStore is a mock implementation of store.AnswerStore
type MockAnswerStore struct {
	mock.Mock
}

func (m *MockAnswerStore) UpsertAudio(ctx context.Context, answer *domain.Answer) error {
	return m.Called(ctx, answer).Error(0)
}

func (m *MockAnswerStore) SaveTranscript(ctx context.Context, attemptID, questionID uuid.UUID, transcript string) error {
	return m.Called(ctx, attemptID, questionID, transcript).Error(0)
}

func (m *MockAnswerStore) MarkScored(ctx context.Context, attemptID uuid.UUID, questionIDs []uuid.UUID) error {
	return m.Called(ctx, attemptID, questionIDs).Error(0)
}

func (m *MockAnswerStore) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*domain.Answer, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Answer), args.Error(1)
}

// MockQuestionStore is a mock implementation of store.QuestionStore
type MockQuestionStore struct {
	mock.Mock
}

func (m *MockQuestionStore) CreateBatch(ctx context.Context, questions []*domain.Question) error {
	return m.Called(ctx, questions).Error(0)
}

func (m *MockQuestionStore) ListByInterview(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error) {
	args := m.Called(ctx, interviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	args := m.Called(tx)
	return args.Get(0).(store.QuestionStore)
}

// MockDocumentStore is a mock implementation of store.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) SaveChunks(ctx context.Context, chunks []*domain.Chunk) error {
	return m.Called(ctx, chunks).Error(0)
}

func (m *MockDocumentStore) SaveChunkMetadata(ctx context.Context, records []*domain.ChunkMetadataRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockDocumentStore) ListChunksByInterview(
	ctx context.Context,
	interviewID uuid.UUID,
	limit int,
) ([]*domain.Chunk, error) {
	args := m.Called(ctx, interviewID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

func (m *MockDocumentStore) ListMetadataByInterview(
	ctx context.Context,
	interviewID uuid.UUID,
	limit int,
) ([]*domain.ChunkMetadataRecord, error) {
	args := m.Called(ctx, interviewID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChunkMetadataRecord), args.Error(1)
}

func (m *MockDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	args := m.Called(tx)
	return args.Get(0).(store.DocumentStore)
}

// MockFeedbackStore is a mock implementation of store.FeedbackStore
type MockFeedbackStore struct {
	mock.Mock
}

func (m *MockFeedbackStore) Create(ctx context.Context, feedback *domain.Feedback) error {
	return m.Called(ctx, feedback).Error(0)
}

// MockDispatcher is a mock implementation of service.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) GetOrGenerate(ctx context.Context, key domain.ResourceKey, input any) (*dispatch.Result, error) {
	args := m.Called(ctx, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Result), args.Error(1)
}

func (m *MockDispatcher) Enqueue(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

// MockUploadStore is a mock implementation of service.UploadStore
type MockUploadStore struct {
	mock.Mock
}

func (m *MockUploadStore) Save(ctx context.Context, prefix, ext string, r io.Reader, maxBytes int64) (string, error) {
	args := m.Called(ctx, prefix, ext, r, maxBytes)
	return args.String(0), args.Error(1)
}

func (m *MockUploadStore) Remove(path string) {
	m.Called(path)
}

// MockScorer is a mock implementation of service.AttemptScorer
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ScoreAttempt(
	ctx context.Context,
	attemptID, interviewID uuid.UUID,
	userID string,
	progress func(done, total int),
) (*domain.ScoringReport, error) {
	args := m.Called(ctx, attemptID, interviewID, userID, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoringReport), args.Error(1)
}
