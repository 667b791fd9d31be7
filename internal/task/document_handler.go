package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// DocumentHandler parses an uploaded document into chunks, extracts
// structured metadata per chunk and reports progress as it goes.
type DocumentHandler struct {
	extractor   generation.ChunkExtractor
	uploads     UploadArea
	pipeline    *generation.Pipeline
	documents   store.DocumentStore
	progress    store.ProgressTracker
	progressTTL time.Duration
	maxAttempts int
	logger      *slog.Logger
}

var _ Handler = (*DocumentHandler)(nil)

// NewDocumentHandler creates a handler for the document_parse lane.
func NewDocumentHandler(
	extractor generation.ChunkExtractor,
	uploads UploadArea,
	pipeline *generation.Pipeline,
	documents store.DocumentStore,
	progress store.ProgressTracker,
	progressTTL time.Duration,
	maxAttempts int,
	log *slog.Logger,
) *DocumentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentHandler{
		extractor:   extractor,
		uploads:     uploads,
		pipeline:    pipeline,
		documents:   documents,
		progress:    progress,
		progressTTL: progressTTL,
		maxAttempts: maxAttempts,
		logger:      log.With("component", "document_handler"),
	}
}

// Lane implements Handler.
func (h *DocumentHandler) Lane() domain.Lane { return domain.LaneDocumentParse }

// Handle implements Handler. Any failure is recorded as an error progress
// record; the uploaded file is always removed.
func (h *DocumentHandler) Handle(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)
	progress := progressReporter{tracker: h.progress, key: job.Key, ttl: h.progressTTL, logger: log}

	var input domain.DocumentInput
	if err := job.DecodeInput(&input); err != nil {
		err = fmt.Errorf("invalid document job input: %w", err)
		progress.fail(ctx, err)
		return err
	}
	if !h.uploads.Contains(input.FilePath) {
		err := fmt.Errorf("document job %s: %w", job.ID, ErrForeignPath)
		progress.fail(ctx, err)
		return err
	}
	defer h.uploads.Remove(input.FilePath)

	if err := h.parse(ctx, log, progress, input); err != nil {
		progress.fail(ctx, err)
		return err
	}
	progress.done(ctx)
	return nil
}

func (h *DocumentHandler) parse(
	ctx context.Context,
	log *slog.Logger,
	progress progressReporter,
	input domain.DocumentInput,
) error {
	progress.processing(ctx, 0)

	texts, err := h.extractor.ExtractChunks(ctx, input.FilePath)
	if err != nil {
		return fmt.Errorf("failed to extract chunks: %w", err)
	}
	if len(texts) == 0 {
		return fmt.Errorf("document has no text: %w", domain.ErrEmptyContent)
	}

	now := time.Now().UTC()
	chunks := make([]*domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &domain.Chunk{
			ID:          uuid.New(),
			UploadID:    input.UploadID,
			UserID:      input.UserID,
			InterviewID: input.InterviewID,
			Index:       i,
			Text:        text,
			CreatedAt:   now,
		}
	}
	if err := h.documents.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to save chunks: %w", err)
	}

	records := make([]*domain.ChunkMetadataRecord, 0, len(texts))
	for i, text := range texts {
		meta := h.extractMetadata(ctx, log, text, i)
		records = append(records, &domain.ChunkMetadataRecord{
			ID:            uuid.New(),
			UploadID:      input.UploadID,
			UserID:        input.UserID,
			InterviewID:   input.InterviewID,
			ChunkMetadata: meta,
			CreatedAt:     time.Now().UTC(),
		})
		progress.processing(ctx, float64(i+1)/float64(len(texts)))
	}

	if err := h.documents.SaveChunkMetadata(ctx, records); err != nil {
		return fmt.Errorf("failed to save chunk metadata: %w", err)
	}

	log.InfoContext(ctx, "document parsed",
		"upload_id", input.UploadID,
		"chunks", len(texts))
	return nil
}

// extractMetadata never fails: a chunk whose metadata cannot be validated
// gets the fallback preview.
func (h *DocumentHandler) extractMetadata(ctx context.Context, log *slog.Logger, text string, index int) domain.ChunkMetadata {
	prompt, err := generation.ChunkMetadataPrompt(generation.ChunkMetadataPromptData{Chunk: text})
	if err != nil {
		log.ErrorContext(ctx, "failed to render chunk metadata prompt", "chunk_index", index, "error", err)
		return domain.FallbackChunkMetadata(text)
	}

	meta, err := generation.InvokeInto[domain.ChunkMetadata](
		ctx, h.pipeline, prompt, generation.ChunkMetadataValidator(), h.maxAttempts)
	if err != nil {
		log.WarnContext(ctx, "chunk metadata extraction failed, using fallback",
			"chunk_index", index,
			"error", err)
		return domain.FallbackChunkMetadata(text)
	}

	if meta.ChunkPreview == "" {
		meta.ChunkPreview = domain.TruncateRunes(text, domain.ChunkPreviewRunes)
	}
	if meta.Topics == nil {
		meta.Topics = []string{}
	}
	if meta.KeyPoints == nil {
		meta.KeyPoints = []string{}
	}
	return meta
}
