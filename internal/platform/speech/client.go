package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
)

// Client synthesizes and transcribes speech with one OpenAI client.
type Client struct {
	client             openai.Client
	ttsModel           string
	voice              string
	transcriptionModel string
	logger             *slog.Logger
}

var (
	_ generation.Synthesizer = (*Client)(nil)
	_ generation.Transcriber = (*Client)(nil)
)

// NewClient builds a Client from cfg. httpClient may be nil.
func NewClient(cfg config.SpeechConfig, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:             openai.NewClient(opts...),
		ttsModel:           cfg.TTSModel,
		voice:              cfg.Voice,
		transcriptionModel: cfg.TranscriptionModel,
		logger:             log.With("component", "speech_client"),
	}, nil
}

// Synthesize returns WAV audio for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, generation.ErrEmptyInput
	}

	log := logger.FromContextOrDefault(ctx, c.logger)
	log.DebugContext(ctx, "synthesizing speech", "chars", len(text), "voice", c.voice)

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
		Speed:          openai.Float(1.0),
	})
	if err != nil {
		return nil, mapOpenAIError("speech", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read speech response: %w", generation.ErrProducerFailure, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty speech response", generation.ErrInvalidResponse)
	}
	return audio, nil
}

// Transcribe returns the text spoken in the audio file at audioPath.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if audioPath == "" {
		return "", generation.ErrEmptyInput
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: open audio: %w", generation.ErrProducerFailure, err)
	}
	defer f.Close()

	log := logger.FromContextOrDefault(ctx, c.logger)
	log.DebugContext(ctx, "transcribing audio", "path", audioPath, "model", c.transcriptionModel)

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(c.transcriptionModel),
	})
	if err != nil {
		return "", mapOpenAIError("transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func mapOpenAIError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		sentinel := generation.ErrProducerFailure
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError {
			sentinel = generation.ErrTransientFailure
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%w: openai %s error (status %d): %s", sentinel, op, apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%w: openai %s error (status %d)", sentinel, op, apiErr.StatusCode)
	}
	return fmt.Errorf("%w: openai %s: %w", generation.ErrProducerFailure, op, err)
}
