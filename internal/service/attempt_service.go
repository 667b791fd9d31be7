package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// MaxAudioBytes bounds one uploaded answer recording.
const MaxAudioBytes = 25 << 20

// Dispatcher is the subset of dispatch.Dispatcher services need.
type Dispatcher interface {
	GetOrGenerate(ctx context.Context, key domain.ResourceKey, input any) (*dispatch.Result, error)
	Enqueue(ctx context.Context, job *domain.Job) error
}

// UploadStore keeps uploaded files until a worker consumes them.
type UploadStore interface {
	Save(ctx context.Context, prefix, ext string, r io.Reader, maxBytes int64) (string, error)
	Remove(path string)
}

// AttemptScorer scores an attempt synchronously.
type AttemptScorer interface {
	ScoreAttempt(
		ctx context.Context,
		attemptID, interviewID uuid.UUID,
		userID string,
		progress func(done, total int),
	) (*domain.ScoringReport, error)
}

// SubmitAnswerRequest carries one recorded answer.
type SubmitAnswerRequest struct {
	AttemptID   uuid.UUID
	InterviewID uuid.UUID
	QuestionID  uuid.UUID
	UserID      string
	Filename    string
	Audio       io.Reader
}

// CompleteAttemptRequest finishes an attempt. Async hands scoring to the
// scoring lane instead of running it in the request.
type CompleteAttemptRequest struct {
	AttemptID   uuid.UUID
	InterviewID uuid.UUID
	UserID      string
	Async       bool
}

// CompletionResult is the outcome of CompleteAttempt. Report is set when
// scoring finished; otherwise Key names the pending scoring result.
type CompletionResult struct {
	Report *domain.ScoringReport
	Key    domain.ResourceKey
	Queued bool
}

// AttemptService provides the attempt lifecycle.
type AttemptService interface {
	// StartAttempt records a new in-progress attempt.
	StartAttempt(ctx context.Context, attemptID, interviewID uuid.UUID, userID string) (*domain.Attempt, error)

	// SubmitAnswer stores the audio, records the answer and queues its
	// transcription.
	SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*domain.Answer, error)

	// CompleteAttempt marks the attempt completed and scores it.
	CompleteAttempt(ctx context.Context, req CompleteAttemptRequest) (*CompletionResult, error)
}

type attemptServiceImpl struct {
	attempts   store.AttemptStore
	answers    store.AnswerStore
	uploads    UploadStore
	dispatcher Dispatcher
	scorer     AttemptScorer
	logger     *slog.Logger
}

// NewAttemptService creates an AttemptService.
// It returns an error if any of the required dependencies are nil.
func NewAttemptService(
	attempts store.AttemptStore,
	answers store.AnswerStore,
	uploads UploadStore,
	dispatcher Dispatcher,
	scorer AttemptScorer,
	logger *slog.Logger,
) (AttemptService, error) {
	for name, dep := range map[string]any{
		"attempts":   attempts,
		"answers":    answers,
		"uploads":    uploads,
		"dispatcher": dispatcher,
		"scorer":     scorer,
	} {
		if dep == nil {
			return nil, &ServiceError{
				Service:   "attempt",
				Operation: "create_service",
				Message:   name + " cannot be nil",
			}
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &attemptServiceImpl{
		attempts:   attempts,
		answers:    answers,
		uploads:    uploads,
		dispatcher: dispatcher,
		scorer:     scorer,
		logger:     logger.With("component", "attempt_service"),
	}, nil
}

// StartAttempt implements AttemptService.
func (s *attemptServiceImpl) StartAttempt(
	ctx context.Context,
	attemptID, interviewID uuid.UUID,
	userID string,
) (*domain.Attempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := domain.NewAttempt(attemptID, interviewID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.ErrorContext(ctx, "failed to create attempt",
			"error", err,
			"attempt_id", attemptID)
		return nil, NewServiceError("attempt", "start_attempt", "failed to save attempt", err)
	}

	log.InfoContext(ctx, "attempt started",
		"attempt_id", attemptID,
		"interview_id", interviewID)
	return attempt, nil
}

// SubmitAnswer implements AttemptService.
func (s *attemptServiceImpl) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*domain.Answer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"attempt_id", req.AttemptID,
		"question_id", req.QuestionID)

	if req.Audio == nil {
		return nil, fmt.Errorf("%w: audio is required", ErrInvalidRequest)
	}
	answer, err := domain.NewAudioAnswer(req.AttemptID, req.QuestionID, req.InterviewID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ext := filepath.Ext(req.Filename)
	if ext == "" {
		ext = ".webm"
	}
	path, err := s.uploads.Save(ctx, "answer", ext, req.Audio, MaxAudioBytes)
	if err != nil {
		return nil, NewServiceError("attempt", "submit_answer", "failed to store audio", err)
	}

	if err := s.answers.UpsertAudio(ctx, answer); err != nil {
		s.uploads.Remove(path)
		log.ErrorContext(ctx, "failed to record answer", "error", err)
		return nil, NewServiceError("attempt", "submit_answer", "failed to record answer", err)
	}

	key := domain.TranscriptKey(req.AttemptID.String(), req.QuestionID.String())
	job, err := domain.NewJob(domain.LaneTranscription, key, domain.TranscriptionInput{
		AudioPath:   path,
		AttemptID:   req.AttemptID,
		InterviewID: req.InterviewID,
		QuestionID:  req.QuestionID,
		UserID:      req.UserID,
	})
	if err != nil {
		s.uploads.Remove(path)
		return nil, NewServiceError("attempt", "submit_answer", "failed to build transcription job", err)
	}

	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		s.uploads.Remove(path)
		log.ErrorContext(ctx, "failed to queue transcription", "error", err)
		return nil, NewServiceError("attempt", "submit_answer", "failed to queue transcription", err)
	}

	log.InfoContext(ctx, "answer queued for transcription", "job_id", job.ID)
	return answer, nil
}

// CompleteAttempt implements AttemptService.
func (s *attemptServiceImpl) CompleteAttempt(ctx context.Context, req CompleteAttemptRequest) (*CompletionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("attempt_id", req.AttemptID)

	if req.AttemptID == uuid.Nil || req.InterviewID == uuid.Nil {
		return nil, fmt.Errorf("%w: attempt and interview ids are required", ErrInvalidRequest)
	}

	if err := s.attempts.MarkCompleted(ctx, req.AttemptID); err != nil {
		return nil, NewServiceError("attempt", "complete_attempt", "failed to mark attempt completed", err)
	}

	key := domain.ScoreKey(req.AttemptID.String())

	if !req.Async {
		report, err := s.scorer.ScoreAttempt(ctx, req.AttemptID, req.InterviewID, req.UserID, nil)
		if err != nil {
			return nil, NewServiceError("attempt", "complete_attempt", "failed to score attempt", err)
		}
		return &CompletionResult{Report: report, Key: key}, nil
	}

	res, err := s.dispatcher.GetOrGenerate(ctx, key, domain.ScoringInput{
		AttemptID:   req.AttemptID,
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
	})
	if err != nil {
		return nil, NewServiceError("attempt", "complete_attempt", "failed to dispatch scoring", err)
	}

	if res.Ready() {
		var report domain.ScoringReport
		if err := json.Unmarshal(res.Payload, &report); err != nil {
			return nil, NewServiceError("attempt", "complete_attempt", "cached report is corrupt", err)
		}
		return &CompletionResult{Report: &report, Key: key}, nil
	}

	log.InfoContext(ctx, "scoring dispatched", "outcome", res.Outcome)
	return &CompletionResult{Key: key, Queued: true}, nil
}
