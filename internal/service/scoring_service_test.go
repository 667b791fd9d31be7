package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validScore = `Scores follow. {"clarity":20,"relevance":20,"depth":15,"structure":15,"final_score":70}`

type scoringFixture struct {
	questions *MockQuestionStore
	answers   *MockAnswerStore
	feedback  *MockFeedbackStore
	writes    *atomic.Int32
	svc       *service.ScoringService
}

func newScoringFixture(t *testing.T, scoreReply, feedbackReply string, cfg service.ScoringConfig) *scoringFixture {
	t.Helper()

	f := &scoringFixture{
		questions: new(MockQuestionStore),
		answers:   new(MockAnswerStore),
		feedback:  new(MockFeedbackStore),
		writes:    new(atomic.Int32),
	}
	scorer := generation.NewPipeline(generation.ChatCompleterFunc(func(context.Context, string) (string, error) {
		return scoreReply, nil
	}), testLogger())
	writer := generation.ChatCompleterFunc(func(context.Context, string) (string, error) {
		f.writes.Add(1)
		return feedbackReply, nil
	})

	svc, err := service.NewScoringService(f.questions, f.answers, f.feedback, scorer, writer, cfg, testLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func question(interviewID uuid.UUID, text string) *domain.Question {
	return &domain.Question{
		ID:          uuid.New(),
		InterviewID: interviewID,
		Text:        text,
		IdealAnswer: "An ideal answer",
	}
}

func answer(attemptID, questionID uuid.UUID, transcript string) *domain.Answer {
	status := domain.AnswerAudioReceived
	if transcript != "" {
		status = domain.AnswerTranscribed
	}
	return &domain.Answer{
		ID:         uuid.New(),
		AttemptID:  attemptID,
		QuestionID: questionID,
		Transcript: transcript,
		HasAudio:   true,
		Status:     status,
	}
}

func TestScoringService_ScoreAttempt(t *testing.T) {
	attemptID := uuid.New()
	interviewID := uuid.New()

	t.Run("scores every question and stores feedback", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "```\nSolid answers overall.\n```", service.ScoringConfig{
			TranscriptWait: time.Second,
			TranscriptPoll: time.Millisecond,
		})

		q1 := question(interviewID, "What is a goroutine?")
		q2 := question(interviewID, "Explain channels.")
		a1 := answer(attemptID, q1.ID, "A lightweight thread")

		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{a1}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1, q2}, nil)
		f.feedback.On("Create", mock.Anything, mock.MatchedBy(func(fb *domain.Feedback) bool {
			return fb.AttemptID == attemptID &&
				fb.UserID == "user-1" &&
				fb.FeedbackText == "Solid answers overall." &&
				fb.OverallScore == 70
		})).Return(nil)
		f.answers.On("MarkScored", mock.Anything, attemptID, []uuid.UUID{q1.ID}).Return(nil)

		var calls [][2]int
		report, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", func(done, total int) {
			calls = append(calls, [2]int{done, total})
		})
		require.NoError(t, err)

		require.Len(t, report.Items, 2)
		assert.Equal(t, "A lightweight thread", report.Items[0].UserTranscript)
		assert.Equal(t, "", report.Items[1].UserTranscript)
		assert.Equal(t, 70, report.Items[1].Scores.FinalScore)
		assert.Equal(t, 70.0, report.OverallScore)
		assert.Equal(t, 40, report.TotalClarity)
		assert.Equal(t, 30, report.TotalStructure)
		assert.Equal(t, "Solid answers overall.", report.Feedback)
		assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)

		f.answers.AssertExpectations(t)
		f.feedback.AssertExpectations(t)
	})

	t.Run("waits for pending transcripts", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "Good.", service.ScoringConfig{
			TranscriptWait: 5 * time.Second,
			TranscriptPoll: time.Millisecond,
		})

		q1 := question(interviewID, "Q1")
		pending := answer(attemptID, q1.ID, "")
		done := answer(attemptID, q1.ID, "finished transcript")

		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{pending}, nil).Twice()
		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{done}, nil).Once()
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1}, nil)
		f.feedback.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.answers.On("MarkScored", mock.Anything, attemptID, []uuid.UUID{q1.ID}).Return(nil)

		report, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "finished transcript", report.Items[0].UserTranscript)
		f.answers.AssertNumberOfCalls(t, "ListByAttempt", 3)
	})

	t.Run("does not wait for an empty transcript", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "Good.", service.ScoringConfig{
			TranscriptWait: 5 * time.Second,
			TranscriptPoll: time.Millisecond,
		})

		q1 := question(interviewID, "Q1")
		silent := answer(attemptID, q1.ID, "")
		silent.Status = domain.AnswerTranscribed

		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{silent}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1}, nil)
		f.feedback.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.answers.On("MarkScored", mock.Anything, attemptID, []uuid.UUID{q1.ID}).Return(nil)

		_, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.NoError(t, err)
		f.answers.AssertNumberOfCalls(t, "ListByAttempt", 1)
	})

	t.Run("scores without transcripts when the wait expires", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "Good.", service.ScoringConfig{
			TranscriptWait: 20 * time.Millisecond,
			TranscriptPoll: 5 * time.Millisecond,
		})

		q1 := question(interviewID, "Q1")
		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{answer(attemptID, q1.ID, "")}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1}, nil)
		f.feedback.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.answers.On("MarkScored", mock.Anything, attemptID, mock.Anything).Return(nil)

		report, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "", report.Items[0].UserTranscript)
		assert.Greater(t, len(f.answers.Calls), 2)
	})

	t.Run("unvalidated score fails the attempt", func(t *testing.T) {
		f := newScoringFixture(t, `{"clarity":30,"relevance":0,"depth":0,"structure":0,"final_score":30}`, "Good.",
			service.ScoringConfig{ValidationAttempts: 2})

		q1 := question(interviewID, "Q1")
		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1}, nil)

		_, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, generation.ErrValidationExhausted))
		f.feedback.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Equal(t, int32(0), f.writes.Load())
	})

	t.Run("no questions stores fixed feedback", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "unused", service.ScoringConfig{})

		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{}, nil)
		f.feedback.On("Create", mock.Anything, mock.MatchedBy(func(fb *domain.Feedback) bool {
			return fb.FeedbackText == service.NoItemsFeedback && fb.OverallScore == 0
		})).Return(nil)

		report, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.NoError(t, err)
		assert.Empty(t, report.Items)
		assert.Equal(t, service.NoItemsFeedback, report.Feedback)
		assert.Equal(t, int32(0), f.writes.Load())
		f.answers.AssertNotCalled(t, "MarkScored", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("feedback store failure", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "Good.", service.ScoringConfig{})

		q1 := question(interviewID, "Q1")
		dbErr := errors.New("insert failed")
		f.answers.On("ListByAttempt", mock.Anything, attemptID).Return([]*domain.Answer{}, nil)
		f.questions.On("ListByInterview", mock.Anything, interviewID).Return([]*domain.Question{q1}, nil)
		f.feedback.On("Create", mock.Anything, mock.Anything).Return(dbErr)

		_, err := f.svc.ScoreAttempt(context.Background(), attemptID, interviewID, "user-1", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, dbErr))

		var svcErr *service.ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "save_feedback", svcErr.Operation)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		f := newScoringFixture(t, validScore, "Good.", service.ScoringConfig{
			TranscriptWait: time.Minute,
			TranscriptPoll: 10 * time.Millisecond,
		})

		f.answers.On("ListByAttempt", mock.Anything, attemptID).
			Return([]*domain.Answer{answer(attemptID, uuid.New(), "")}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := f.svc.ScoreAttempt(ctx, attemptID, interviewID, "user-1", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		f.questions.AssertNotCalled(t, "ListByInterview", mock.Anything, mock.Anything)
	})
}

func TestNewScoringService_Validation(t *testing.T) {
	pipeline := generation.NewPipeline(generation.ChatCompleterFunc(func(context.Context, string) (string, error) {
		return "", nil
	}), nil)
	writer := generation.ChatCompleterFunc(func(context.Context, string) (string, error) { return "", nil })

	_, err := service.NewScoringService(nil, new(MockAnswerStore), new(MockFeedbackStore), pipeline, writer,
		service.ScoringConfig{}, nil)
	assert.Error(t, err)

	_, err = service.NewScoringService(new(MockQuestionStore), new(MockAnswerStore), new(MockFeedbackStore), nil, writer,
		service.ScoringConfig{}, nil)
	assert.Error(t, err)

	svc, err := service.NewScoringService(new(MockQuestionStore), new(MockAnswerStore), new(MockFeedbackStore), pipeline,
		writer, service.ScoringConfig{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
