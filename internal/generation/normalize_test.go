package generation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeQuestions_PadsShortList(t *testing.T) {
	t.Parallel()
	drafts := []QuestionDraft{
		{Question: "  What is a slice?  ", Difficulty: "easy", Topic: "Go"},
		{Question: "   "},
		{Question: "Explain interfaces."},
	}

	got := NormalizeQuestions(drafts, 10, DocumentPolicy())
	require.Len(t, got, 10)

	assert.Equal(t, "What is a slice?", got[0].Question)
	assert.Equal(t, "easy", got[0].Difficulty)
	assert.Equal(t, "pdf", got[0].Type)

	assert.Equal(t, "Explain interfaces.", got[1].Question)
	assert.Equal(t, DefaultDifficulty, got[1].Difficulty)
	assert.Equal(t, DocumentDefaultTopic, got[1].Topic)
	assert.NotNil(t, got[1].KeyPoints)

	assert.Equal(t, "Placeholder question 3 based on PDF content", got[2].Question)
	assert.Equal(t, "Placeholder question 10 based on PDF content", got[9].Question)
	for _, p := range got[2:] {
		assert.Equal(t, "medium", p.Difficulty)
		assert.Equal(t, "general", p.Topic)
		require.NotNil(t, p.IdealAnswer)
		assert.Equal(t, "No ideal answer available.", *p.IdealAnswer)
		assert.Empty(t, p.KeyPoints)
	}
}

func TestNormalizeQuestions_TruncatesLongList(t *testing.T) {
	t.Parallel()
	drafts := make([]QuestionDraft, 14)
	for i := range drafts {
		drafts[i] = QuestionDraft{Question: "q", IdealAnswer: strPtr("a")}
	}

	got := NormalizeQuestions(drafts, 10, ManualPolicy("technical"))
	require.Len(t, got, 10)
	for _, q := range got {
		assert.Equal(t, "technical", q.Type)
		assert.Equal(t, ManualDefaultTopic, q.Topic)
	}
}

func TestNormalizeQuestions_EmptyInputIsAllPlaceholders(t *testing.T) {
	t.Parallel()
	got := NormalizeQuestions(nil, 0, ManualPolicy("behavioral"))
	require.Len(t, got, DefaultQuestionCount)
	assert.Equal(t, "Placeholder question 1 based on interview content", got[0].Question)
}

func TestNormalizeQuestions_Deterministic(t *testing.T) {
	t.Parallel()
	drafts := []QuestionDraft{{Question: "a"}, {Question: ""}, {Question: "b"}}
	assert.Equal(t, NormalizeQuestions(drafts, 5, DocumentPolicy()), NormalizeQuestions(drafts, 5, DocumentPolicy()))
}

func TestToQuestions(t *testing.T) {
	t.Parallel()
	interviewID := uuid.New()
	drafts := NormalizeQuestions([]QuestionDraft{{Question: "a"}}, 3, DocumentPolicy())

	questions := ToQuestions(drafts, interviewID, "user-1")
	require.Len(t, questions, 3)
	for i, q := range questions {
		assert.NoError(t, q.Validate())
		assert.Equal(t, interviewID, q.InterviewID)
		assert.Equal(t, "user-1", q.UserID)
		assert.Equal(t, i, q.Position)
	}
	assert.Equal(t, "", questions[0].IdealAnswer)
	assert.Equal(t, PlaceholderIdealAnswer, questions[1].IdealAnswer)
}
