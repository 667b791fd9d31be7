package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/mockview-api/internal/api/shared"
	"github.com/phrazzld/mockview-api/internal/service"
)

// QuestionHandler serves question generation endpoints.
type QuestionHandler struct {
	questions service.QuestionService
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(questions service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// ManualQuestions handles POST /interview/manual-questions.
func (h *QuestionHandler) ManualQuestions(w http.ResponseWriter, r *http.Request) {
	var req ManualQuestionsRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	interviewID, err := parseUUID("interviewId", req.InterviewID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	questions, err := h.questions.GenerateManual(r.Context(), service.ManualQuestionsRequest{
		InterviewID:   interviewID,
		UserID:        req.UserID,
		Role:          req.Role,
		TechStack:     req.TechStack,
		InterviewType: req.InterviewType,
		Count:         req.Count,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate questions")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, QuestionsResponse{
		Status:           "success",
		QuestionsCreated: len(questions),
		InterviewID:      interviewID.String(),
		Questions:        questions,
	})
}

// PDFQuestions handles POST /interview/pdf-questions.
func (h *QuestionHandler) PDFQuestions(w http.ResponseWriter, r *http.Request) {
	var req PDFQuestionsRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	interviewID, err := parseUUID("interviewId", req.InterviewID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	questions, err := h.questions.GenerateFromDocument(r.Context(), service.DocumentQuestionsRequest{
		InterviewID: interviewID,
		UserID:      req.UserID,
		Count:       req.Count,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate questions")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, QuestionsResponse{
		Status:           "success",
		QuestionsCreated: len(questions),
		InterviewID:      interviewID.String(),
		Questions:        questions,
	})
}

// ListQuestions handles GET /interview/questions/{interviewId}.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	interviewID, err := parseUUID("interviewId", chi.URLParam(r, "interviewId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	questions, err := h.questions.ListQuestions(r.Context(), interviewID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list questions")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuestionsResponse{
		Status:           "success",
		QuestionsCreated: len(questions),
		InterviewID:      interviewID.String(),
		Questions:        questions,
	})
}
