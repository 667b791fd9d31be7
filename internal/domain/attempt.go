package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the lifecycle state of an interview attempt.
type AttemptStatus string

// Attempt states.
const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt is one run through an interview's questions by a user.
type Attempt struct {
	ID          uuid.UUID     `json:"attempt_id"`
	InterviewID uuid.UUID     `json:"interview_id"`
	UserID      string        `json:"user_id,omitempty"`
	Status      AttemptStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// NewAttempt creates an in-progress attempt. The ID is supplied by the
// client so that uploads can reference it before the row exists.
func NewAttempt(id, interviewID uuid.UUID, userID string) (*Attempt, error) {
	a := &Attempt{
		ID:          id,
		InterviewID: interviewID,
		UserID:      userID,
		Status:      AttemptInProgress,
		StartedAt:   time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks required identifiers.
func (a *Attempt) Validate() error {
	if a.ID == uuid.Nil || a.InterviewID == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}
