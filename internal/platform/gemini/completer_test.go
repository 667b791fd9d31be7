package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	generateFn func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	return f.generateFn(ctx, model, contents, cfg)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:       "key",
		ModelName:          "gemini-test",
		Temperature:        0.3,
		RequestsPerSecond:  100,
		ValidationAttempts: 3,
	}
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestComplete_SendsPromptAndJoinsParts(t *testing.T) {
	t.Parallel()
	var gotModel string
	var gotTemp float32
	var gotPrompt string
	fake := &fakeModels{generateFn: func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = model
		gotTemp = *cfg.Temperature
		gotPrompt = contents[0].Parts[0].Text
		return textResponse(`{"a":`, `1}`), nil
	}}
	c := newCompleter(fake, testConfig(), testLogger())

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "gemini-test", gotModel)
	assert.Equal(t, "hello", gotPrompt)
	assert.InDelta(t, 0.3, gotTemp, 0.0001)

	_, err = c.WithTemperature(0).Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, gotTemp)
}

func TestComplete_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		wantErr error
	}{
		{name: "rate limited", err: genai.APIError{Code: 429, Message: "slow down"}, wantErr: generation.ErrTransientFailure},
		{name: "server error", err: genai.APIError{Code: 503, Message: "unavailable"}, wantErr: generation.ErrTransientFailure},
		{name: "bad request", err: genai.APIError{Code: 400, Message: "bad"}, wantErr: generation.ErrProducerFailure},
		{name: "network", err: errors.New("dial tcp: refused"), wantErr: generation.ErrProducerFailure},
		{name: "nil response", wantErr: generation.ErrInvalidResponse},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: generation.ErrInvalidResponse},
		{name: "empty text", resp: textResponse(""), wantErr: generation.ErrInvalidResponse},
		{
			name: "safety",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			wantErr: generation.ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeModels{generateFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return tt.resp, tt.err
			}}
			_, err := newCompleter(fake, testConfig(), testLogger()).Complete(context.Background(), "p")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComplete_RejectsEmptyPrompt(t *testing.T) {
	t.Parallel()
	called := false
	fake := &fakeModels{generateFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		called = true
		return textResponse("x"), nil
	}}
	_, err := newCompleter(fake, testConfig(), testLogger()).Complete(context.Background(), "  ")
	assert.ErrorIs(t, err, generation.ErrEmptyInput)
	assert.False(t, called)
}

func TestComplete_CancelledWhileRateLimited(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	fake := &fakeModels{generateFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse("x"), nil
	}}
	c := newCompleter(fake, cfg, testLogger())

	_, err := c.Complete(context.Background(), "first")
	require.NoError(t, err, "burst of one allows the first call")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, "second")
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
}

func TestNewCompleter_ValidatesConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	_, err := NewCompleter(context.Background(), testLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.ModelName = ""
	_, err = NewCompleter(context.Background(), testLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewCompleter(context.Background(), nil, testConfig())
	assert.Error(t, err)
}
