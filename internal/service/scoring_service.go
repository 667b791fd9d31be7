package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// NoItemsFeedback is stored when an attempt has no questions to score.
const NoItemsFeedback = "No questions were available to score for this attempt."

// ScoringConfig holds the transcript wait budget and the validation budget.
type ScoringConfig struct {
	TranscriptWait     time.Duration
	TranscriptPoll     time.Duration
	ValidationAttempts int
}

// ScoringConfigFrom derives a ScoringConfig from application config.
func ScoringConfigFrom(cfg *config.Config) ScoringConfig {
	return ScoringConfig{
		TranscriptWait:     cfg.Scoring.TranscriptWait,
		TranscriptPoll:     cfg.Scoring.TranscriptPoll,
		ValidationAttempts: cfg.LLM.ValidationAttempts,
	}
}

// ScoringService scores completed attempts.
type ScoringService struct {
	questions store.QuestionStore
	answers   store.AnswerStore
	feedback  store.FeedbackStore
	scorer    *generation.Pipeline
	writer    generation.ChatCompleter
	config    ScoringConfig
	logger    *slog.Logger
}

// NewScoringService creates a ScoringService. scorer should run on a
// deterministic completer; writer produces the free-text feedback.
func NewScoringService(
	questions store.QuestionStore,
	answers store.AnswerStore,
	feedback store.FeedbackStore,
	scorer *generation.Pipeline,
	writer generation.ChatCompleter,
	cfg ScoringConfig,
	logger *slog.Logger,
) (*ScoringService, error) {
	if questions == nil || answers == nil || feedback == nil {
		return nil, &ServiceError{Service: "scoring", Operation: "create_service", Message: "stores cannot be nil"}
	}
	if scorer == nil || writer == nil {
		return nil, &ServiceError{Service: "scoring", Operation: "create_service", Message: "producers cannot be nil"}
	}
	if cfg.TranscriptPoll <= 0 {
		cfg.TranscriptPoll = time.Second
	}
	if cfg.ValidationAttempts <= 0 {
		cfg.ValidationAttempts = generation.DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ScoringService{
		questions: questions,
		answers:   answers,
		feedback:  feedback,
		scorer:    scorer,
		writer:    writer,
		config:    cfg,
		logger:    logger.With("component", "scoring_service"),
	}, nil
}

// ScoreAttempt scores every question of the interview against the attempt's
// transcripts, stores the feedback row and marks the answers scored. A
// question whose score cannot be validated fails the whole attempt.
// progress, when not nil, is called after each scored item.
func (s *ScoringService) ScoreAttempt(
	ctx context.Context,
	attemptID, interviewID uuid.UUID,
	userID string,
	progress func(done, total int),
) (*domain.ScoringReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("attempt_id", attemptID, "interview_id", interviewID)

	answers, err := s.waitForTranscripts(ctx, log, attemptID)
	if err != nil {
		return nil, NewServiceError("scoring", "wait_for_transcripts", "failed to load answers", err)
	}

	questions, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, NewServiceError("scoring", "score_attempt", "failed to load questions", err)
	}

	items := mergeItems(attemptID, questions, answers)
	for i := range items {
		scores, err := s.scoreItem(ctx, items[i])
		if err != nil {
			log.ErrorContext(ctx, "failed to score item",
				"question_id", items[i].QuestionID,
				"error", err)
			return nil, NewServiceError("scoring", "score_attempt",
				fmt.Sprintf("failed to score question %s", items[i].QuestionID), err)
		}
		items[i].Scores = scores
		if progress != nil {
			progress(i+1, len(items))
		}
	}

	report := &domain.ScoringReport{
		AttemptID:   attemptID,
		InterviewID: interviewID,
		ScoreTotals: domain.ComputeTotals(items),
		Items:       items,
	}

	report.Feedback, err = s.writeFeedback(ctx, report)
	if err != nil {
		return nil, NewServiceError("scoring", "write_feedback", "failed to generate feedback", err)
	}

	if err := s.feedback.Create(ctx, domain.NewFeedback(report, userID)); err != nil {
		return nil, NewServiceError("scoring", "save_feedback", "failed to save feedback", err)
	}

	if ids := answeredQuestionIDs(answers); len(ids) > 0 {
		if err := s.answers.MarkScored(ctx, attemptID, ids); err != nil {
			return nil, NewServiceError("scoring", "mark_scored", "failed to mark answers scored", err)
		}
	}

	log.InfoContext(ctx, "attempt scored",
		"items", len(items),
		"overall_score", report.OverallScore)
	return report, nil
}

// waitForTranscripts polls until no answer is still awaiting transcription or
// the wait budget is spent. Running out of time is not an error: the
// missing transcripts are scored as empty answers.
func (s *ScoringService) waitForTranscripts(ctx context.Context, log *slog.Logger, attemptID uuid.UUID) ([]*domain.Answer, error) {
	deadline := time.Now().Add(s.config.TranscriptWait)
	for {
		answers, err := s.answers.ListByAttempt(ctx, attemptID)
		if err != nil {
			return nil, err
		}

		pending := 0
		for _, a := range answers {
			if a.AwaitingTranscript() {
				pending++
			}
		}
		if pending == 0 {
			return answers, nil
		}
		if !time.Now().Before(deadline) {
			log.WarnContext(ctx, "transcript wait expired, scoring without them",
				"pending", pending,
				"waited", s.config.TranscriptWait)
			return answers, nil
		}

		log.DebugContext(ctx, "waiting for transcripts", "pending", pending)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.TranscriptPoll):
		}
	}
}

func (s *ScoringService) scoreItem(ctx context.Context, item domain.ScoredItem) (domain.CategoryScores, error) {
	prompt, err := generation.ScorePrompt(generation.ScorePromptData{
		Question:    item.QuestionText,
		IdealAnswer: item.IdealAnswer,
		UserAnswer:  item.UserTranscript,
	})
	if err != nil {
		return domain.CategoryScores{}, err
	}
	return generation.InvokeInto[domain.CategoryScores](
		ctx, s.scorer, prompt, generation.ScoreValidator(), s.config.ValidationAttempts)
}

func (s *ScoringService) writeFeedback(ctx context.Context, report *domain.ScoringReport) (string, error) {
	if len(report.Items) == 0 {
		return NoItemsFeedback, nil
	}

	data, err := generation.NewFeedbackPromptData(report.OverallScore, report.Items)
	if err != nil {
		return "", err
	}
	prompt, err := generation.FeedbackPrompt(data)
	if err != nil {
		return "", err
	}

	text, err := s.writer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(generation.StripCodeFences(text)), nil
}

// mergeItems pairs each question with the attempt's answer. Questions
// without an answer or transcript are scored with an empty transcript.
func mergeItems(attemptID uuid.UUID, questions []*domain.Question, answers []*domain.Answer) []domain.ScoredItem {
	byQuestion := make(map[uuid.UUID]*domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	items := make([]domain.ScoredItem, 0, len(questions))
	for _, q := range questions {
		transcript := ""
		if a, ok := byQuestion[q.ID]; ok {
			transcript = a.Transcript
		}
		items = append(items, domain.ScoredItem{
			AttemptID:      attemptID,
			QuestionID:     q.ID,
			QuestionText:   q.Text,
			IdealAnswer:    q.IdealAnswer,
			UserTranscript: transcript,
		})
	}
	return items
}

func answeredQuestionIDs(answers []*domain.Answer) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	return ids
}
