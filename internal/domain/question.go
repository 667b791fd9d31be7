package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question is one interview question with its reference answer.
type Question struct {
	ID          uuid.UUID `json:"id"`
	InterviewID uuid.UUID `json:"interview_id"`
	UserID      string    `json:"user_id,omitempty"`
	Text        string    `json:"question"`
	Difficulty  string    `json:"difficulty"`
	Topic       string    `json:"topic"`
	Type        string    `json:"type"`
	IdealAnswer string    `json:"ideal_answer"`
	KeyPoints   []string  `json:"key_points"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks that the question has text and identifiers.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil || q.InterviewID == uuid.Nil {
		return ErrInvalidID
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyContent
	}
	return nil
}
