package domain

import (
	"fmt"
	"strings"
)

// Well-known resource key domains.
const (
	DomainSpeech     = "tts"
	DomainTranscript = "stt"
	DomainDocument   = "pdf_parse"
	DomainScore      = "score"
)

// ResourceKey names the artifact being computed. It is used uniformly as the
// cache key, the lock key and the correlator in queued jobs. The subsystem
// treats the components as opaque; construction rules belong to callers.
type ResourceKey struct {
	Domain    string `json:"domain"`
	SubjectID string `json:"subject_id"`
	ItemID    string `json:"item_id"`
}

// NewResourceKey builds a key and validates it.
func NewResourceKey(domain, subjectID, itemID string) (ResourceKey, error) {
	k := ResourceKey{Domain: domain, SubjectID: subjectID, ItemID: itemID}
	if err := k.Validate(); err != nil {
		return ResourceKey{}, err
	}
	return k, nil
}

// SpeechKey is the key of the synthesized audio for one interview question.
func SpeechKey(interviewID, questionID string) ResourceKey {
	return ResourceKey{Domain: DomainSpeech, SubjectID: interviewID, ItemID: questionID}
}

// TranscriptKey is the key of the transcript of one answer in an attempt.
func TranscriptKey(attemptID, questionID string) ResourceKey {
	return ResourceKey{Domain: DomainTranscript, SubjectID: attemptID, ItemID: questionID}
}

// DocumentKey is the key of a document parse for one upload.
func DocumentKey(userID, uploadID string) ResourceKey {
	return ResourceKey{Domain: DomainDocument, SubjectID: userID, ItemID: uploadID}
}

// ScoreKey is the key of the scoring report of an attempt.
func ScoreKey(attemptID string) ResourceKey {
	return ResourceKey{Domain: DomainScore, SubjectID: attemptID, ItemID: "report"}
}

// Validate reports an error when any component is empty or contains the
// separator used by String.
func (k ResourceKey) Validate() error {
	for name, part := range map[string]string{
		"domain":     k.Domain,
		"subject_id": k.SubjectID,
		"item_id":    k.ItemID,
	} {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidKey, name)
		}
		if strings.Contains(part, ":") {
			return fmt.Errorf("%w: %s contains ':'", ErrInvalidKey, name)
		}
	}
	return nil
}

// String renders the key as domain:subject:item.
func (k ResourceKey) String() string {
	return k.Domain + ":" + k.SubjectID + ":" + k.ItemID
}

// ParseResourceKey is the inverse of String.
func ParseResourceKey(s string) (ResourceKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return ResourceKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return NewResourceKey(parts[0], parts[1], parts[2])
}
