package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnswerStatus tracks one question/answer pair through an attempt.
type AnswerStatus string

// Answer states, in the only order they may be visited.
const (
	AnswerUnanswered    AnswerStatus = "unanswered"
	AnswerAudioReceived AnswerStatus = "audio_received"
	AnswerTranscribed   AnswerStatus = "transcribed"
	AnswerScored        AnswerStatus = "scored"
)

var answerRank = map[AnswerStatus]int{
	AnswerUnanswered:    0,
	AnswerAudioReceived: 1,
	AnswerTranscribed:   2,
	AnswerScored:        3,
}

// Valid reports whether s is a known answer status.
func (s AnswerStatus) Valid() bool {
	_, ok := answerRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the status monotone.
// Staying in place is allowed so that redelivered jobs are idempotent.
func (s AnswerStatus) CanAdvanceTo(next AnswerStatus) bool {
	from, ok1 := answerRank[s]
	to, ok2 := answerRank[next]
	return ok1 && ok2 && to >= from
}

// CheckTransition returns ErrInvalidTransition when s may not move to next.
func (s AnswerStatus) CheckTransition(next AnswerStatus) error {
	if !s.CanAdvanceTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}

// Sources lists, in order, the statuses that may move to s.
func (s AnswerStatus) Sources() []AnswerStatus {
	var out []AnswerStatus
	for _, from := range []AnswerStatus{AnswerUnanswered, AnswerAudioReceived, AnswerTranscribed, AnswerScored} {
		if from.CanAdvanceTo(s) {
			out = append(out, from)
		}
	}
	return out
}

// Answer is the user's response to one question within an attempt.
type Answer struct {
	ID          uuid.UUID    `json:"id"`
	AttemptID   uuid.UUID    `json:"attempt_id"`
	QuestionID  uuid.UUID    `json:"question_id"`
	InterviewID uuid.UUID    `json:"interview_id"`
	UserID      string       `json:"user_id,omitempty"`
	Transcript  string       `json:"transcript"`
	HasAudio    bool         `json:"has_audio"`
	Status      AnswerStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewAudioAnswer creates an answer whose audio has just been received.
func NewAudioAnswer(attemptID, questionID, interviewID uuid.UUID, userID string) (*Answer, error) {
	if attemptID == uuid.Nil || questionID == uuid.Nil || interviewID == uuid.Nil {
		return nil, ErrInvalidID
	}
	now := time.Now().UTC()
	return &Answer{
		ID:          uuid.New(),
		AttemptID:   attemptID,
		QuestionID:  questionID,
		InterviewID: interviewID,
		UserID:      userID,
		HasAudio:    true,
		Status:      AnswerAudioReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AwaitingTranscript reports whether scoring should wait for this answer:
// its audio arrived and transcription has not finished. Answers without
// audio were skipped by the user and are never waited on.
func (a *Answer) AwaitingTranscript() bool {
	return a.HasAudio && a.Status == AnswerAudioReceived
}
