package domain

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is the persisted outcome of scoring an attempt.
type Feedback struct {
	ID           uuid.UUID `json:"id"`
	AttemptID    uuid.UUID `json:"attempt_id"`
	InterviewID  uuid.UUID `json:"interview_id"`
	UserID       string    `json:"user_id,omitempty"`
	FeedbackText string    `json:"feedback_text"`
	ScoreTotals
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedback builds a feedback row from a scoring report.
func NewFeedback(report *ScoringReport, userID string) *Feedback {
	return &Feedback{
		ID:           uuid.New(),
		AttemptID:    report.AttemptID,
		InterviewID:  report.InterviewID,
		UserID:       userID,
		FeedbackText: report.Feedback,
		ScoreTotals:  report.ScoreTotals,
		CreatedAt:    time.Now().UTC(),
	}
}
