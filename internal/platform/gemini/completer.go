package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models the completer uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Completer implements generation.ChatCompleter with a Gemini model.
type Completer struct {
	models      contentGenerator
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ generation.ChatCompleter = (*Completer)(nil)

// NewCompleter creates a Gemini client from cfg.
func NewCompleter(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Completer, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newCompleter(client.Models, cfg, log), nil
}

func newCompleter(models contentGenerator, cfg config.LLMConfig, log *slog.Logger) *Completer {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Completer{
		models:      models,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		logger:      log.With("component", "gemini_completer", "model", cfg.ModelName),
	}
}

// WithTemperature returns a Completer that samples at t and shares the
// receiver's client and rate limiter. Scoring uses 0.
func (c *Completer) WithTemperature(t float32) *Completer {
	clone := *c
	clone.temperature = t
	return &clone
}

// Complete sends prompt as a single user turn and returns the concatenated
// text of the first candidate that has any.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", generation.ErrEmptyInput
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", generation.ErrTransientFailure, err)
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}

	log.DebugContext(ctx, "calling gemini", "prompt_length", len(prompt), "temperature", c.temperature)

	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		mapped := mapAPIError(err)
		log.ErrorContext(ctx, "gemini call failed", "error", err)
		return "", mapped
	}

	text, err := responseText(resp)
	if err != nil {
		log.WarnContext(ctx, "gemini returned no usable text", "error", err)
		return "", err
	}

	log.DebugContext(ctx, "gemini call succeeded", "response_length", len(text))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}

// mapAPIError classifies Gemini failures. Rate limiting and server errors
// are transient; everything else is a producer failure.
func mapAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: gemini %d: %s", generation.ErrTransientFailure, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: gemini %d: %s", generation.ErrProducerFailure, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %w", generation.ErrProducerFailure, err)
}
