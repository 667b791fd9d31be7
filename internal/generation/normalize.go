package generation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
)

// DefaultQuestionCount is the fixed size of a generated question set.
const DefaultQuestionCount = 10

// Defaults applied to generated and placeholder questions.
const (
	DefaultDifficulty         = "medium"
	PlaceholderTopic          = "general"
	PlaceholderIdealAnswer    = "No ideal answer available."
	ManualDefaultTopic        = "concept"
	DocumentDefaultTopic      = "general"
	DocumentQuestionType      = "pdf"
	ManualPlaceholderSource   = "interview"
	DocumentPlaceholderSource = "PDF"
)

// QuestionDraft is one question object as returned by the model.
type QuestionDraft struct {
	Question    string   `json:"question"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Category    string   `json:"category,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Type        string   `json:"type,omitempty"`
	IdealAnswer *string  `json:"ideal_answer,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
}

// PaddingPolicy controls defaults and placeholders for NormalizeQuestions.
type PaddingPolicy struct {
	// Source names the content in placeholder text, e.g. "PDF".
	Source string
	// DefaultTopic fills drafts that came back without a topic.
	DefaultTopic string
	// Type is stamped on every question.
	Type string
}

// ManualPolicy is the policy for role/tech-stack generated questions.
func ManualPolicy(interviewType string) PaddingPolicy {
	return PaddingPolicy{
		Source:       ManualPlaceholderSource,
		DefaultTopic: ManualDefaultTopic,
		Type:         interviewType,
	}
}

// DocumentPolicy is the policy for questions generated from an upload.
func DocumentPolicy() PaddingPolicy {
	return PaddingPolicy{
		Source:       DocumentPlaceholderSource,
		DefaultTopic: DocumentDefaultTopic,
		Type:         DocumentQuestionType,
	}
}

// NormalizeQuestions returns exactly n drafts. Drafts with blank question
// text are dropped, the rest get defaults, the list is cut to n and then
// padded with numbered placeholders. The result depends only on the input.
func NormalizeQuestions(drafts []QuestionDraft, n int, policy PaddingPolicy) []QuestionDraft {
	if n <= 0 {
		n = DefaultQuestionCount
	}

	out := make([]QuestionDraft, 0, n)
	for _, d := range drafts {
		if len(out) == n {
			break
		}
		text := strings.TrimSpace(d.Question)
		if text == "" {
			continue
		}

		d.Question = text
		if d.Difficulty == "" {
			d.Difficulty = DefaultDifficulty
		}
		if d.Topic == "" {
			d.Topic = policy.DefaultTopic
		}
		d.Type = policy.Type
		if d.KeyPoints == nil {
			d.KeyPoints = []string{}
		}
		out = append(out, d)
	}

	for len(out) < n {
		ideal := PlaceholderIdealAnswer
		out = append(out, QuestionDraft{
			Question:    fmt.Sprintf("Placeholder question %d based on %s content", len(out)+1, policy.Source),
			Difficulty:  DefaultDifficulty,
			Topic:       PlaceholderTopic,
			Type:        policy.Type,
			IdealAnswer: &ideal,
			KeyPoints:   []string{},
		})
	}
	return out
}

// ToQuestions assigns identifiers and positions to normalized drafts.
func ToQuestions(drafts []QuestionDraft, interviewID uuid.UUID, userID string) []domain.Question {
	now := time.Now().UTC()
	questions := make([]domain.Question, len(drafts))
	for i, d := range drafts {
		ideal := ""
		if d.IdealAnswer != nil {
			ideal = *d.IdealAnswer
		}
		questions[i] = domain.Question{
			ID:          uuid.New(),
			InterviewID: interviewID,
			UserID:      userID,
			Text:        d.Question,
			Difficulty:  d.Difficulty,
			Topic:       d.Topic,
			Type:        d.Type,
			IdealAnswer: ideal,
			KeyPoints:   d.KeyPoints,
			Position:    i,
			CreatedAt:   now,
		}
	}
	return questions
}
