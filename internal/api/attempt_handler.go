package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mockview-api/internal/api/shared"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/service"
)

// answerUploadSlack covers the multipart envelope around the audio part.
const answerUploadSlack = 1 << 20

// AttemptHandler serves the attempt lifecycle endpoints.
type AttemptHandler struct {
	attempts service.AttemptService
	logger   *slog.Logger
}

// NewAttemptHandler creates an AttemptHandler.
func NewAttemptHandler(attempts service.AttemptService, logger *slog.Logger) *AttemptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttemptHandler{
		attempts: attempts,
		logger:   logger.With("component", "attempt_handler"),
	}
}

// StartAttempt handles POST /interview/start_attempt.
func (h *AttemptHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req StartAttemptRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	attemptID, err := parseUUID("attemptId", req.AttemptID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	interviewID, err := parseUUID("interviewId", req.InterviewID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	attempt, err := h.attempts.StartAttempt(r.Context(), attemptID, interviewID, req.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start attempt")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, StartAttemptResponse{
		Message:   "Attempt record initialized successfully",
		AttemptID: attempt.ID.String(),
	})
}

// SubmitAnswer handles POST /interview/answer. The multipart form carries
// the recording in "file" plus questionId, interviewId, attemptId and an
// optional userId.
func (h *AttemptHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	file, header, err := formFile(w, r, "file", service.MaxAudioBytes+answerUploadSlack)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.DebugContext(r.Context(), "failed to close upload part", "error", cerr)
		}
	}()

	questionID, err := parseUUID("questionId", r.FormValue("questionId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	interviewID, err := parseUUID("interviewId", r.FormValue("interviewId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	attemptID, err := parseUUID("attemptId", r.FormValue("attemptId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	_, err = h.attempts.SubmitAnswer(r.Context(), service.SubmitAnswerRequest{
		AttemptID:   attemptID,
		InterviewID: interviewID,
		QuestionID:  questionID,
		UserID:      r.FormValue("userId"),
		Filename:    header.Filename,
		Audio:       file,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to queue answer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, AnswerQueuedResponse{
		Status:     "queued",
		Message:    "Transcription started",
		QuestionID: questionID.String(),
		AttemptID:  attemptID.String(),
	})
}

// CompleteAttempt handles POST /interview/complete_attempt. It answers 200
// with the report, or 202 with the key to watch when scoring was queued.
func (h *AttemptHandler) CompleteAttempt(w http.ResponseWriter, r *http.Request) {
	var req CompleteAttemptRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	attemptID, err := parseUUID("attemptId", req.AttemptID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	interviewID, err := parseUUID("interviewId", req.InterviewID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.attempts.CompleteAttempt(r.Context(), service.CompleteAttemptRequest{
		AttemptID:   attemptID,
		InterviewID: interviewID,
		UserID:      req.UserID,
		Async:       req.Async,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete attempt")
		return
	}

	if res.Queued {
		shared.RespondWithJSON(w, r, http.StatusAccepted, CompleteAttemptResponse{
			Status: "queued",
			Key:    res.Key.String(),
		})
		return
	}

	overall := res.Report.OverallScore
	shared.RespondWithJSON(w, r, http.StatusOK, CompleteAttemptResponse{
		Status:       "completed",
		Key:          res.Key.String(),
		OverallScore: &overall,
		Feedback:     res.Report.Feedback,
		Questions:    res.Report.Items,
	})
}
