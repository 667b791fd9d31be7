package api

import (
	"github.com/phrazzld/mockview-api/internal/domain"
)

// StartAttemptRequest is the body of POST /interview/start_attempt.
type StartAttemptRequest struct {
	AttemptID   string `json:"attemptId"   validate:"required,uuid"`
	InterviewID string `json:"interviewId" validate:"required,uuid"`
	UserID      string `json:"userId"      validate:"required,max=128"`
}

// StartAttemptResponse acknowledges a started attempt.
type StartAttemptResponse struct {
	Message   string `json:"message"`
	AttemptID string `json:"attemptId"`
}

// AnswerQueuedResponse acknowledges an uploaded answer.
type AnswerQueuedResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	QuestionID string `json:"questionId"`
	AttemptID  string `json:"attemptId"`
}

// CompleteAttemptRequest is the body of POST /interview/complete_attempt.
type CompleteAttemptRequest struct {
	AttemptID   string `json:"attemptId"   validate:"required,uuid"`
	InterviewID string `json:"interviewId" validate:"required,uuid"`
	UserID      string `json:"userId"      validate:"max=128"`
	Async       bool   `json:"async"`
}

// CompleteAttemptResponse carries the scoring report, or the key to watch
// when scoring was queued.
type CompleteAttemptResponse struct {
	Status       string              `json:"status"`
	Key          string              `json:"key,omitempty"`
	OverallScore *float64            `json:"overall_score,omitempty"`
	Feedback     string              `json:"feedback,omitempty"`
	Questions    []domain.ScoredItem `json:"questions,omitempty"`
}

// ManualQuestionsRequest is the body of POST /interview/manual-questions.
type ManualQuestionsRequest struct {
	UserID        string   `json:"userId"      validate:"max=128"`
	InterviewID   string   `json:"interviewId" validate:"required,uuid"`
	Role          string   `json:"role"        validate:"required,max=200"`
	TechStack     []string `json:"techstack"   validate:"required,min=1,dive,required"`
	InterviewType string   `json:"type"        validate:"max=100"`
	Count         int      `json:"count"       validate:"min=0,max=50"`
}

// PDFQuestionsRequest is the body of POST /interview/pdf-questions.
type PDFQuestionsRequest struct {
	UserID      string `json:"userId"      validate:"max=128"`
	InterviewID string `json:"interviewId" validate:"required,uuid"`
	Count       int    `json:"count"       validate:"min=0,max=50"`
}

// QuestionsResponse lists created questions.
type QuestionsResponse struct {
	Status           string             `json:"status"`
	QuestionsCreated int                `json:"questions_created"`
	InterviewID      string             `json:"interview_id"`
	Questions        []*domain.Question `json:"questions"`
}

// UploadResponse tells the client where to follow document parsing.
type UploadResponse struct {
	RedisKey     string `json:"redisKey"`
	WebsocketURL string `json:"websocketUrl"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
