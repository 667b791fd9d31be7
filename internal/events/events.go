package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/mockview-api/internal/domain"
)

// Kind names an event in the client contract.
type Kind string

// Event kinds. ready and error are terminal for a subscription.
const (
	KindProcessing Kind = "processing"
	KindProgress   Kind = "progress"
	KindReady      Kind = "ready"
	KindError      Kind = "error"
)

// Event is one notification pushed to a subscriber.
type Event struct {
	Event Kind   `json:"event"`
	Key   string `json:"key"`

	// QuestionID echoes the legacy start_question request.
	QuestionID string `json:"questionId,omitempty"`

	Status   domain.ProgressStatus `json:"status,omitempty"`
	Progress *int                  `json:"progress,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Terminal reports whether no further events follow e for its subscription.
func (e Event) Terminal() bool {
	return e.Event == KindReady || e.Event == KindError
}

// Processing builds the acknowledgement sent when a job is pending.
func Processing(key domain.ResourceKey) Event {
	return Event{Event: KindProcessing, Key: key.String()}
}

// Ready builds the single success event of a subscription.
func Ready(key domain.ResourceKey) Event {
	return Event{Event: KindReady, Key: key.String()}
}

// Failed builds the single failure event of a subscription.
func Failed(key domain.ResourceKey, detail string) Event {
	return Event{Event: KindError, Key: key.String(), Error: detail}
}

// FromProgress converts a progress record. Terminal records become ready
// or error events.
func FromProgress(record domain.ProgressRecord) Event {
	percent := record.Percent()
	e := Event{
		Event:    KindProgress,
		Key:      record.Key.String(),
		Status:   record.Status,
		Progress: &percent,
		Error:    record.ErrorDetail,
	}
	switch record.Status {
	case domain.ProgressDone:
		e.Event = KindReady
	case domain.ProgressError:
		e.Event = KindError
		if e.Error == "" {
			e.Error = "job failed"
		}
	}
	return e
}

// Request actions.
const (
	ActionStartJob      = "start_job"
	ActionStartQuestion = "start_question"
)

// KeyRef is the wire form of a resource key.
type KeyRef struct {
	Domain    string `json:"domain"`
	SubjectID string `json:"subject_id"`
	ItemID    string `json:"item_id"`
}

// Request is a client request received over a WebSocket.
type Request struct {
	Action string          `json:"action"`
	Key    *KeyRef         `json:"key,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`

	// Legacy start_question fields.
	QuestionID  string `json:"questionId,omitempty"`
	InterviewID string `json:"interviewId,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Resolve returns the key the request refers to and the job input to use
// when the artifact must be generated. A start_question request maps to a
// speech job. Transcript and document jobs read uploaded files, so they
// cannot be started over a socket.
func (r Request) Resolve() (domain.ResourceKey, any, error) {
	switch r.Action {
	case ActionStartJob:
		if r.Key == nil {
			return domain.ResourceKey{}, nil, fmt.Errorf("%w: start_job requires a key", domain.ErrValidation)
		}
		key, err := domain.NewResourceKey(r.Key.Domain, r.Key.SubjectID, r.Key.ItemID)
		if err != nil {
			return domain.ResourceKey{}, nil, err
		}
		if key.Domain == domain.DomainTranscript || key.Domain == domain.DomainDocument {
			return domain.ResourceKey{}, nil, fmt.Errorf("%w: %s jobs are created by upload routes only", domain.ErrValidation, key.Domain)
		}
		if len(r.Input) == 0 {
			return key, nil, nil
		}
		return key, r.Input, nil
	case ActionStartQuestion:
		if strings.TrimSpace(r.Text) == "" {
			return domain.ResourceKey{}, nil, fmt.Errorf("%w: start_question requires text", domain.ErrValidation)
		}
		key, err := domain.NewResourceKey(domain.DomainSpeech, r.InterviewID, r.QuestionID)
		if err != nil {
			return domain.ResourceKey{}, nil, err
		}
		return key, domain.SpeechInput{Text: r.Text}, nil
	}
	return domain.ResourceKey{}, nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, r.Action)
}
