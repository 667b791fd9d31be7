package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStatusTransitions(t *testing.T) {
	t.Parallel()

	require.NoError(t, AnswerAudioReceived.CheckTransition(AnswerTranscribed))
	require.NoError(t, AnswerTranscribed.CheckTransition(AnswerTranscribed), "repeating a state is idempotent")
	require.NoError(t, AnswerAudioReceived.CheckTransition(AnswerScored))

	err := AnswerScored.CheckTransition(AnswerAudioReceived)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.ErrorIs(t, AnswerStatus("archived").CheckTransition(AnswerScored), ErrInvalidTransition)

	assert.Equal(t, []AnswerStatus{AnswerUnanswered, AnswerAudioReceived, AnswerTranscribed}, AnswerTranscribed.Sources())
	assert.Equal(t, []AnswerStatus{AnswerUnanswered}, AnswerUnanswered.Sources())
	assert.Len(t, AnswerScored.Sources(), 4)
}

func TestNewAudioAnswerRequiresIDs(t *testing.T) {
	t.Parallel()

	_, err := NewAudioAnswer(uuid.Nil, uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAwaitingTranscriptSkipsAnswersWithoutAudio(t *testing.T) {
	t.Parallel()

	skipped := &Answer{HasAudio: false}
	assert.False(t, skipped.AwaitingTranscript())

	done := &Answer{HasAudio: true, Transcript: "text", Status: AnswerTranscribed}
	assert.False(t, done.AwaitingTranscript())
}

func TestAwaitingTranscriptFollowsStatus(t *testing.T) {
	t.Parallel()

	a, err := NewAudioAnswer(uuid.New(), uuid.New(), uuid.New(), "user")
	require.NoError(t, err)
	assert.True(t, a.AwaitingTranscript())

	// Silence transcribes to an empty string; the answer is still done.
	a.Status = AnswerTranscribed
	assert.False(t, a.AwaitingTranscript())
}
