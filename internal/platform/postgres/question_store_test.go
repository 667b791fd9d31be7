package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionStore_CreateBatchInTransaction(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := NewPostgresQuestionStore(db, testLogger())
	interviewID := uuid.New()

	questions := []*domain.Question{
		{ID: uuid.New(), InterviewID: interviewID, Text: "What is a channel?", Difficulty: "easy", KeyPoints: []string{"sync"}, Position: 0, CreatedAt: time.Now()},
		{ID: uuid.New(), InterviewID: interviewID, Text: "What is select?", Difficulty: "medium", Position: 1, CreatedAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO questions").
		WithArgs(questions[0].ID, interviewID, "", "What is a channel?", "easy", "", "", "", []byte(`["sync"]`), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO questions").
		WithArgs(questions[1].ID, interviewID, "", "What is select?", "medium", "", "", "", []byte(`[]`), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).CreateBatch(ctx, questions)
	})
	require.NoError(t, err)
}

func TestQuestionStore_CreateBatchRejectsEmptyText(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	s := NewPostgresQuestionStore(db, testLogger())

	err := s.CreateBatch(context.Background(), []*domain.Question{{ID: uuid.New(), InterviewID: uuid.New(), Text: " "}})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestQuestionStore_ListByInterview(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := NewPostgresQuestionStore(db, testLogger())
	interviewID := uuid.New()
	q1 := uuid.New()

	cols := []string{"id", "interview_id", "user_id", "question", "difficulty", "topic", "type", "ideal_answer", "key_points", "position", "created_at"}
	mock.ExpectQuery("SELECT id, interview_id").WithArgs(interviewID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(q1.String(), interviewID.String(), "u", "Q1", "easy", "Go", "technical", "A1", []byte(`["x","y"]`), 0, time.Now()))

	questions, err := s.ListByInterview(context.Background(), interviewID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, q1, questions[0].ID)
	assert.Equal(t, "Q1", questions[0].Text)
	assert.Equal(t, []string{"x", "y"}, questions[0].KeyPoints)
}
