package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/api/shared"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/service"
)

// MaxDocumentBytes bounds one uploaded PDF.
const MaxDocumentBytes = 20 << 20

// DocumentCreationMethod is the only creation_method accepted by UploadPDF.
const DocumentCreationMethod = "PDF"

// JobDispatcher starts or joins generation of an artifact.
type JobDispatcher interface {
	GetOrGenerate(ctx context.Context, key domain.ResourceKey, input any) (*dispatch.Result, error)
}

// ArtifactReader reads finished artifacts.
type ArtifactReader interface {
	Lookup(ctx context.Context, key domain.ResourceKey) ([]byte, bool, error)
}

// ArtifactHandler serves cached audio and accepts document uploads.
type ArtifactHandler struct {
	jobs      JobDispatcher
	artifacts ArtifactReader
	uploads   service.UploadStore
	logger    *slog.Logger
}

// NewArtifactHandler creates an ArtifactHandler.
func NewArtifactHandler(
	jobs JobDispatcher,
	artifacts ArtifactReader,
	uploads service.UploadStore,
	logger *slog.Logger,
) *ArtifactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactHandler{
		jobs:      jobs,
		artifacts: artifacts,
		uploads:   uploads,
		logger:    logger.With("component", "artifact_handler"),
	}
}

// GetAudio handles GET /interview/audio?interviewId=&questionId=. It
// answers 404 until the speech job has cached the WAV bytes.
func (h *ArtifactHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := domain.NewResourceKey(domain.DomainSpeech, q.Get("interviewId"), q.Get("questionId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	audio, ok, err := h.artifacts.Lookup(r.Context(), key)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read audio")
		return
	}
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Audio not ready")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).
			DebugContext(r.Context(), "failed to write audio", "error", err)
	}
}

// UploadPDF handles POST /interview/upload-pdf. The form carries the PDF in
// "file", a userId, creation_method=PDF and an optional interviewId. The
// parse job is queued and the response names the key to follow.
func (h *ArtifactHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	file, header, err := formFile(w, r, "file", MaxDocumentBytes+answerUploadSlack)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.DebugContext(r.Context(), "failed to close upload part", "error", cerr)
		}
	}()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Only PDF files allowed")
		return
	}
	if r.FormValue("creation_method") != DocumentCreationMethod {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid creation_method for PDF upload")
		return
	}
	userID := strings.TrimSpace(r.FormValue("userId"))
	if userID == "" {
		HandleAPIError(w, r, domain.NewValidationError("userId", "is required", domain.ErrValidation), "")
		return
	}
	interviewID, err := parseOptionalUUID("interviewId", r.FormValue("interviewId"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	path, err := h.uploads.Save(r.Context(), "document", ".pdf", file, MaxDocumentBytes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to store upload")
		return
	}

	uploadID := uuid.New()
	key := domain.DocumentKey(userID, uploadID.String())
	res, err := h.jobs.GetOrGenerate(r.Context(), key, domain.DocumentInput{
		FilePath:    path,
		UserID:      userID,
		UploadID:    uploadID,
		InterviewID: interviewID,
	})
	if err != nil {
		h.uploads.Remove(path)
		HandleAPIError(w, r, err, "Failed to queue document")
		return
	}
	if res.Outcome != dispatch.OutcomeEnqueued {
		// Nothing will consume this copy.
		h.uploads.Remove(path)
	}

	log.InfoContext(r.Context(), "document queued for parsing",
		"key", key.String(),
		"outcome", res.Outcome)

	shared.RespondWithJSON(w, r, http.StatusAccepted, UploadResponse{
		RedisKey:     key.String(),
		WebsocketURL: "/interview/ws/pdf-status/" + url.PathEscape(key.String()),
	})
}
