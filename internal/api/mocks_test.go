package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAttemptService is a testify mock of service.AttemptService.
type MockAttemptService struct {
	mock.Mock
}

var _ service.AttemptService = (*MockAttemptService)(nil)

func (m *MockAttemptService) StartAttempt(
	ctx context.Context,
	attemptID, interviewID uuid.UUID,
	userID string,
) (*domain.Attempt, error) {
	args := m.Called(ctx, attemptID, interviewID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptService) SubmitAnswer(ctx context.Context, req service.SubmitAnswerRequest) (*domain.Answer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockAttemptService) CompleteAttempt(
	ctx context.Context,
	req service.CompleteAttemptRequest,
) (*service.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CompletionResult), args.Error(1)
}

// MockQuestionService is a testify mock of service.QuestionService.
type MockQuestionService struct {
	mock.Mock
}

var _ service.QuestionService = (*MockQuestionService)(nil)

func (m *MockQuestionService) GenerateManual(
	ctx context.Context,
	req service.ManualQuestionsRequest,
) ([]*domain.Question, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionService) GenerateFromDocument(
	ctx context.Context,
	req service.DocumentQuestionsRequest,
) ([]*domain.Question, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionService) ListQuestions(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error) {
	args := m.Called(ctx, interviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

// MockJobDispatcher is a testify mock of JobDispatcher.
type MockJobDispatcher struct {
	mock.Mock
}

var _ JobDispatcher = (*MockJobDispatcher)(nil)

func (m *MockJobDispatcher) GetOrGenerate(ctx context.Context, key domain.ResourceKey, input any) (*dispatch.Result, error) {
	args := m.Called(ctx, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Result), args.Error(1)
}

// MockArtifactReader is a testify mock of ArtifactReader.
type MockArtifactReader struct {
	mock.Mock
}

func (m *MockArtifactReader) Lookup(ctx context.Context, key domain.ResourceKey) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

// MockUploadStore is a testify mock of service.UploadStore. Save drains
// the reader so handlers see a realistic consumer.
type MockUploadStore struct {
	mock.Mock
}

var _ service.UploadStore = (*MockUploadStore)(nil)

func (m *MockUploadStore) Save(ctx context.Context, prefix, ext string, r io.Reader, maxBytes int64) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, prefix, ext, maxBytes)
	return args.String(0), args.Error(1)
}

func (m *MockUploadStore) Remove(path string) {
	m.Called(path)
}
