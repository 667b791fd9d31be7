package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// SpeechHandler synthesizes question audio and caches the WAV bytes.
type SpeechHandler struct {
	synth    generation.Synthesizer
	cache    store.ResultCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

var _ Handler = (*SpeechHandler)(nil)

// NewSpeechHandler creates a handler for the speech lane.
func NewSpeechHandler(
	synth generation.Synthesizer,
	cache store.ResultCache,
	cacheTTL time.Duration,
	log *slog.Logger,
) *SpeechHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SpeechHandler{
		synth:    synth,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.With("component", "speech_handler"),
	}
}

// Lane implements Handler.
func (h *SpeechHandler) Lane() domain.Lane { return domain.LaneSpeech }

// Handle implements Handler. A synthesis failure leaves the cache untouched.
func (h *SpeechHandler) Handle(ctx context.Context, job *domain.Job) error {
	var input domain.SpeechInput
	if err := job.DecodeInput(&input); err != nil {
		return fmt.Errorf("invalid speech job input: %w", err)
	}
	if strings.TrimSpace(input.Text) == "" {
		return fmt.Errorf("speech job %s: %w", job.ID, domain.ErrEmptyContent)
	}

	audio, err := h.synth.Synthesize(ctx, input.Text)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if err := h.cache.Put(ctx, job.Key, audio, h.cacheTTL); err != nil {
		return fmt.Errorf("failed to cache speech: %w", err)
	}

	logger.FromContextOrDefault(ctx, h.logger).InfoContext(ctx, "speech cached", "bytes", len(audio))
	return nil
}

// TranscriptionHandler transcribes uploaded answer audio, stores the
// transcript on the answer row and caches it.
type TranscriptionHandler struct {
	transcriber generation.Transcriber
	uploads     UploadArea
	answers     store.AnswerStore
	cache       store.ResultCache
	cacheTTL    time.Duration
	logger      *slog.Logger
}

var _ Handler = (*TranscriptionHandler)(nil)

// NewTranscriptionHandler creates a handler for the transcription lane.
func NewTranscriptionHandler(
	transcriber generation.Transcriber,
	uploads UploadArea,
	answers store.AnswerStore,
	cache store.ResultCache,
	cacheTTL time.Duration,
	log *slog.Logger,
) *TranscriptionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TranscriptionHandler{
		transcriber: transcriber,
		uploads:     uploads,
		answers:     answers,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      log.With("component", "transcription_handler"),
	}
}

// Lane implements Handler.
func (h *TranscriptionHandler) Lane() domain.Lane { return domain.LaneTranscription }

// Handle implements Handler. Audio outside the upload directory is refused
// untouched; otherwise the file is removed whatever the outcome.
func (h *TranscriptionHandler) Handle(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var input domain.TranscriptionInput
	if err := job.DecodeInput(&input); err != nil {
		return fmt.Errorf("invalid transcription job input: %w", err)
	}
	if !h.uploads.Contains(input.AudioPath) {
		return fmt.Errorf("transcription job %s: %w", job.ID, ErrForeignPath)
	}
	defer h.uploads.Remove(input.AudioPath)

	transcript, err := h.transcriber.Transcribe(ctx, input.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to transcribe answer: %w", err)
	}

	if err := h.answers.SaveTranscript(ctx, input.AttemptID, input.QuestionID, transcript); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	if err := h.cache.Put(ctx, job.Key, []byte(transcript), h.cacheTTL); err != nil {
		return fmt.Errorf("failed to cache transcript: %w", err)
	}

	log.InfoContext(ctx, "transcript stored",
		"attempt_id", input.AttemptID,
		"question_id", input.QuestionID,
		"chars", len(transcript))
	return nil
}
