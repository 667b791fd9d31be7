package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// Limits on the stored document content that feeds the question prompt.
const (
	DocumentContextChunks = 30
	DocumentMetadataLimit = 200
)

// ManualQuestionsRequest describes a role-based question set.
type ManualQuestionsRequest struct {
	InterviewID   uuid.UUID
	UserID        string
	Role          string
	TechStack     []string
	InterviewType string
	Count         int
}

// DocumentQuestionsRequest asks for questions from a parsed document.
type DocumentQuestionsRequest struct {
	InterviewID uuid.UUID
	UserID      string
	Count       int
}

// QuestionService generates and stores interview questions.
type QuestionService interface {
	// GenerateManual creates questions from a role description.
	GenerateManual(ctx context.Context, req ManualQuestionsRequest) ([]*domain.Question, error)

	// GenerateFromDocument creates questions from the interview's parsed
	// document. Returns ErrNoDocumentContent when nothing was parsed.
	GenerateFromDocument(ctx context.Context, req DocumentQuestionsRequest) ([]*domain.Question, error)

	// ListQuestions returns an interview's questions in order.
	ListQuestions(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error)
}

type questionServiceImpl struct {
	db                 store.TxBeginner
	questions          store.QuestionStore
	documents          store.DocumentStore
	pipeline           *generation.Pipeline
	validationAttempts int
	logger             *slog.Logger
}

// NewQuestionService creates a QuestionService.
func NewQuestionService(
	db store.TxBeginner,
	questions store.QuestionStore,
	documents store.DocumentStore,
	pipeline *generation.Pipeline,
	validationAttempts int,
	logger *slog.Logger,
) (QuestionService, error) {
	if db == nil || questions == nil || documents == nil || pipeline == nil {
		return nil, &ServiceError{
			Service:   "question",
			Operation: "create_service",
			Message:   "dependencies cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &questionServiceImpl{
		db:                 db,
		questions:          questions,
		documents:          documents,
		pipeline:           pipeline,
		validationAttempts: validationAttempts,
		logger:             logger.With("component", "question_service"),
	}, nil
}

// GenerateManual implements QuestionService.
func (s *questionServiceImpl) GenerateManual(ctx context.Context, req ManualQuestionsRequest) ([]*domain.Question, error) {
	if req.InterviewID == uuid.Nil || strings.TrimSpace(req.Role) == "" {
		return nil, fmt.Errorf("%w: interview id and role are required", ErrInvalidRequest)
	}
	if len(req.TechStack) == 0 {
		return nil, fmt.Errorf("%w: tech stack is required", ErrInvalidRequest)
	}
	count := questionCount(req.Count)

	prompt, err := generation.ManualQuestionsPrompt(generation.ManualQuestionsPromptData{
		Role:          req.Role,
		TechStack:     req.TechStack,
		InterviewType: req.InterviewType,
		Count:         count,
	})
	if err != nil {
		return nil, NewServiceError("question", "generate_manual", "failed to render prompt", err)
	}

	drafts, err := s.draft(ctx, prompt)
	if err != nil {
		return nil, NewServiceError("question", "generate_manual", "failed to generate questions", err)
	}

	normalized := generation.NormalizeQuestions(drafts, count, generation.ManualPolicy(req.InterviewType))
	return s.save(ctx, "generate_manual", normalized, req.InterviewID, req.UserID)
}

// GenerateFromDocument implements QuestionService.
func (s *questionServiceImpl) GenerateFromDocument(ctx context.Context, req DocumentQuestionsRequest) ([]*domain.Question, error) {
	if req.InterviewID == uuid.Nil {
		return nil, fmt.Errorf("%w: interview id is required", ErrInvalidRequest)
	}
	count := questionCount(req.Count)

	chunks, err := s.documents.ListChunksByInterview(ctx, req.InterviewID, DocumentContextChunks)
	if err != nil {
		return nil, NewServiceError("question", "generate_from_document", "failed to load chunks", err)
	}
	metadata, err := s.documents.ListMetadataByInterview(ctx, req.InterviewID, DocumentMetadataLimit)
	if err != nil {
		return nil, NewServiceError("question", "generate_from_document", "failed to load chunk metadata", err)
	}
	if len(chunks) == 0 || len(metadata) == 0 {
		return nil, ErrNoDocumentContent
	}

	prompt, err := generation.DocumentQuestionsPrompt(documentPromptData(chunks, metadata, count))
	if err != nil {
		return nil, NewServiceError("question", "generate_from_document", "failed to render prompt", err)
	}

	drafts, err := s.draft(ctx, prompt)
	if err != nil {
		return nil, NewServiceError("question", "generate_from_document", "failed to generate questions", err)
	}

	normalized := generation.NormalizeQuestions(drafts, count, generation.DocumentPolicy())
	return s.save(ctx, "generate_from_document", normalized, req.InterviewID, req.UserID)
}

// ListQuestions implements QuestionService.
func (s *questionServiceImpl) ListQuestions(ctx context.Context, interviewID uuid.UUID) ([]*domain.Question, error) {
	questions, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, NewServiceError("question", "list_questions", "failed to list questions", err)
	}
	return questions, nil
}

// draft runs the questions pipeline. Output that never validates yields no
// drafts, which the normalizer turns into placeholders.
func (s *questionServiceImpl) draft(ctx context.Context, prompt string) ([]generation.QuestionDraft, error) {
	drafts, err := generation.InvokeInto[[]generation.QuestionDraft](
		ctx, s.pipeline, prompt, generation.QuestionsValidator(), s.validationAttempts)
	if errors.Is(err, generation.ErrValidationExhausted) {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx,
			"question generation produced no valid output, padding with placeholders",
			"error", err)
		return nil, nil
	}
	return drafts, err
}

func (s *questionServiceImpl) save(
	ctx context.Context,
	op string,
	drafts []generation.QuestionDraft,
	interviewID uuid.UUID,
	userID string,
) ([]*domain.Question, error) {
	values := generation.ToQuestions(drafts, interviewID, userID)
	questions := make([]*domain.Question, len(values))
	for i := range values {
		questions[i] = &values[i]
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.questions.WithTx(tx).CreateBatch(ctx, questions)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save questions",
			"error", err,
			"interview_id", interviewID)
		return nil, NewServiceError("question", op, "failed to save questions", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "questions created",
		"interview_id", interviewID,
		"count", len(questions))
	return questions, nil
}

func questionCount(n int) int {
	if n <= 0 {
		return generation.DefaultQuestionCount
	}
	return n
}

// documentPromptData joins chunk text and deduplicates metadata.
func documentPromptData(chunks []*domain.Chunk, metadata []*domain.ChunkMetadataRecord, count int) generation.DocumentQuestionsPromptData {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	var topics, keyPoints []string
	seenTopic := map[string]bool{}
	seenPoint := map[string]bool{}
	for _, m := range metadata {
		for _, t := range m.Topics {
			if t = strings.TrimSpace(t); t != "" && !seenTopic[t] {
				seenTopic[t] = true
				topics = append(topics, t)
			}
		}
		for _, p := range m.KeyPoints {
			if p = strings.TrimSpace(p); p != "" && !seenPoint[p] {
				seenPoint[p] = true
				keyPoints = append(keyPoints, p)
			}
		}
	}

	return generation.DocumentQuestionsPromptData{
		Context:   strings.Join(texts, "\n\n"),
		Topics:    topics,
		KeyPoints: keyPoints,
		Count:     count,
	}
}
