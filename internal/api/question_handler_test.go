package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuestionHandler_ManualQuestions(t *testing.T) {
	interviewID := uuid.New()
	questions := []*domain.Question{
		{ID: uuid.New(), InterviewID: interviewID, Text: "What is a goroutine?", Position: 0},
		{ID: uuid.New(), InterviewID: interviewID, Text: "What is a channel?", Position: 1},
	}

	t.Run("created", func(t *testing.T) {
		svc := new(MockQuestionService)
		svc.On("GenerateManual", mock.Anything, service.ManualQuestionsRequest{
			InterviewID:   interviewID,
			UserID:        "user-1",
			Role:          "Backend Engineer",
			TechStack:     []string{"Go"},
			InterviewType: "technical",
			Count:         2,
		}).Return(questions, nil)
		h := NewQuestionHandler(svc)

		body := `{"userId":"user-1","interviewId":"` + interviewID.String() +
			`","role":"Backend Engineer","techstack":["Go"],"type":"technical","count":2}`
		w := httptest.NewRecorder()
		h.ManualQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/manual-questions", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, w.Code)
		var resp QuestionsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, 2, resp.QuestionsCreated)
		assert.Equal(t, interviewID.String(), resp.InterviewID)
		assert.Equal(t, "What is a channel?", resp.Questions[1].Text)
	})

	t.Run("empty tech stack", func(t *testing.T) {
		svc := new(MockQuestionService)
		h := NewQuestionHandler(svc)

		body := `{"interviewId":"` + interviewID.String() + `","role":"SRE","techstack":[]}`
		w := httptest.NewRecorder()
		h.ManualQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/manual-questions", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid TechStack: too short", decodeError(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewQuestionHandler(new(MockQuestionService))

		w := httptest.NewRecorder()
		h.ManualQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/manual-questions", strings.NewReader(`{`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", decodeError(t, w))
	})

	t.Run("model failure", func(t *testing.T) {
		svc := new(MockQuestionService)
		svc.On("GenerateManual", mock.Anything, mock.Anything).Return(nil, generation.ErrProducerFailure)
		h := NewQuestionHandler(svc)

		body := `{"interviewId":"` + interviewID.String() + `","role":"SRE","techstack":["Go"]}`
		w := httptest.NewRecorder()
		h.ManualQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/manual-questions", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestQuestionHandler_PDFQuestions(t *testing.T) {
	interviewID := uuid.New()

	t.Run("no parsed document", func(t *testing.T) {
		svc := new(MockQuestionService)
		svc.On("GenerateFromDocument", mock.Anything, service.DocumentQuestionsRequest{
			InterviewID: interviewID,
			UserID:      "user-1",
			Count:       5,
		}).Return(nil, service.ErrNoDocumentContent)
		h := NewQuestionHandler(svc)

		body := `{"userId":"user-1","interviewId":"` + interviewID.String() + `","count":5}`
		w := httptest.NewRecorder()
		h.PDFQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/pdf-questions", strings.NewReader(body)))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No parsed document found for this interview", decodeError(t, w))
	})

	t.Run("created", func(t *testing.T) {
		svc := new(MockQuestionService)
		svc.On("GenerateFromDocument", mock.Anything, mock.Anything).
			Return([]*domain.Question{{ID: uuid.New(), InterviewID: interviewID, Text: "Q"}}, nil)
		h := NewQuestionHandler(svc)

		body := `{"interviewId":"` + interviewID.String() + `"}`
		w := httptest.NewRecorder()
		h.PDFQuestions(w, httptest.NewRequest(http.MethodPost, "/interview/pdf-questions", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestQuestionHandler_ListQuestions(t *testing.T) {
	interviewID := uuid.New()

	withParam := func(r *http.Request, value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("interviewId", value)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("ok", func(t *testing.T) {
		svc := new(MockQuestionService)
		svc.On("ListQuestions", mock.Anything, interviewID).
			Return([]*domain.Question{{ID: uuid.New(), InterviewID: interviewID, Text: "Q"}}, nil)
		h := NewQuestionHandler(svc)

		req := withParam(httptest.NewRequest(http.MethodGet, "/interview/questions/"+interviewID.String(), nil),
			interviewID.String())
		w := httptest.NewRecorder()
		h.ListQuestions(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp QuestionsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.QuestionsCreated)
	})

	t.Run("bad id", func(t *testing.T) {
		svc := new(MockQuestionService)
		h := NewQuestionHandler(svc)

		req := withParam(httptest.NewRequest(http.MethodGet, "/interview/questions/x", nil), "x")
		w := httptest.NewRecorder()
		h.ListQuestions(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ListQuestions", mock.Anything, mock.Anything)
	})
}
