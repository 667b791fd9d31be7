package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lane is a named sub-queue grouping jobs of one artifact type.
type Lane string

// Known lanes.
const (
	LaneSpeech        Lane = "speech"
	LaneTranscription Lane = "transcription"
	LaneDocumentParse Lane = "document_parse"
	LaneScoring       Lane = "scoring"
)

// AllLanes lists every lane in a stable order.
func AllLanes() []Lane {
	return []Lane{LaneSpeech, LaneTranscription, LaneDocumentParse, LaneScoring}
}

// ParseLane converts a lane name into a Lane.
func ParseLane(name string) (Lane, error) {
	l := Lane(name)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLane, name)
	}
	return l, nil
}

// Valid reports whether l is one of the known lanes.
func (l Lane) Valid() bool {
	switch l {
	case LaneSpeech, LaneTranscription, LaneDocumentParse, LaneScoring:
		return true
	}
	return false
}

// LaneForDomain maps a resource key domain to the lane that produces it.
func LaneForDomain(domain string) (Lane, error) {
	switch domain {
	case DomainSpeech:
		return LaneSpeech, nil
	case DomainTranscript:
		return LaneTranscription, nil
	case DomainDocument:
		return LaneDocumentParse, nil
	case DomainScore:
		return LaneScoring, nil
	}
	return "", fmt.Errorf("%w: no lane for domain %q", ErrInvalidLane, domain)
}

// Job is a unit of queued work. It is enqueued once per lock win and
// consumed by exactly one worker per successful dequeue.
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Lane       Lane            `json:"lane"`
	Key        ResourceKey     `json:"key"`
	Input      json.RawMessage `json:"input,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob creates a job with a fresh ID. input is marshalled to JSON.
func NewJob(lane Lane, key ResourceKey, input any) (*Job, error) {
	if !lane.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLane, lane)
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job input: %w", err)
		}
		raw = b
	}

	return &Job{
		ID:         uuid.New(),
		Lane:       lane,
		Key:        key,
		Input:      raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// DecodeInput unmarshals the job input into v.
func (j *Job) DecodeInput(v any) error {
	if len(j.Input) == 0 {
		return fmt.Errorf("%w: job %s has no input", ErrEmptyContent, j.ID)
	}
	return json.Unmarshal(j.Input, v)
}

// SpeechInput is the payload of a speech lane job.
type SpeechInput struct {
	Text string `json:"text"`
}

// TranscriptionInput is the payload of a transcription lane job. AudioPath
// points at a temporary file the worker removes when it is done.
type TranscriptionInput struct {
	AudioPath   string    `json:"audio_path"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	InterviewID uuid.UUID `json:"interview_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	UserID      string    `json:"user_id,omitempty"`
}

// DocumentInput is the payload of a document_parse lane job.
type DocumentInput struct {
	FilePath    string        `json:"file_path"`
	UserID      string        `json:"user_id"`
	UploadID    uuid.UUID     `json:"upload_id"`
	InterviewID uuid.NullUUID `json:"interview_id"`
}

// ScoringInput is the payload of a scoring lane job.
type ScoringInput struct {
	AttemptID   uuid.UUID `json:"attempt_id"`
	InterviewID uuid.UUID `json:"interview_id"`
	UserID      string    `json:"user_id,omitempty"`
}
