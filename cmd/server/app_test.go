package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/mockview-api/internal/api"
	"github.com/phrazzld/mockview-api/internal/api/shared"
	"github.com/phrazzld/mockview-api/internal/bootstrap"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			LogLevel:       "info",
			RequestTimeout: time.Second,
			PollInterval:   10 * time.Millisecond,
		},
		Orchestration: config.OrchestrationConfig{
			CacheTTL:        time.Hour,
			LockTTL:         time.Minute,
			ProgressTTL:     time.Hour,
			EnqueueAttempts: 2,
			EnqueueBackoff:  10 * time.Millisecond,
			WorkersPerLane:  1,
			DequeueTimeout:  50 * time.Millisecond,
			QueueBackend:    bootstrap.QueueRedis,
		},
		LLM: config.LLMConfig{
			GeminiAPIKey:       "test-gemini-key",
			ModelName:          "gemini-2.0-flash",
			RequestsPerSecond:  10,
			ValidationAttempts: 2,
		},
		Speech: config.SpeechConfig{
			OpenAIAPIKey:       "test-openai-key",
			TTSModel:           "tts-1",
			Voice:              "onyx",
			TranscriptionModel: "whisper-1",
			Timeout:            time.Second,
		},
		Scoring: config.ScoringConfig{
			TranscriptWait: time.Second,
			TranscriptPoll: 10 * time.Millisecond,
		},
		Storage: config.StorageConfig{UploadDir: t.TempDir()},
	}
}

type testApp struct {
	app    *application
	redis  *miniredis.Miniredis
	server *httptest.Server
}

func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := assembleApplication(context.Background(), cfg, log, db, rdb)
	require.NoError(t, err)
	t.Cleanup(app.components.Close)

	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)
	return &testApp{app: app, redis: mr, server: server}
}

func TestRouter_Health(t *testing.T) {
	ta := newTestApp(t, testConfig(t))

	resp, err := http.Get(ta.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(shared.TraceIDHeader))

	var body api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)
}

func TestRouter_HealthDegradedWithoutRedis(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.redis.Close()

	resp, err := http.Get(ta.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouter_Routes(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	audioKey := domain.SpeechKey("interview-1", "question-1")
	ta.redis.Set(audioKey.String(), "RIFFWAVE")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"start attempt validates", http.MethodPost, "/interview/start_attempt", `{}`, http.StatusBadRequest},
		{"complete attempt validates", http.MethodPost, "/interview/complete_attempt", `{`, http.StatusBadRequest},
		{"manual questions validate", http.MethodPost, "/interview/manual-questions", `{}`, http.StatusBadRequest},
		{"pdf questions validate", http.MethodPost, "/interview/pdf-questions", `{}`, http.StatusBadRequest},
		{"list questions validates", http.MethodGet, "/interview/questions/not-a-uuid", "", http.StatusBadRequest},
		{"audio not ready", http.MethodGet, "/interview/audio?interviewId=i&questionId=q", "", http.StatusNotFound},
		{"cached audio", http.MethodGet, "/interview/audio?interviewId=interview-1&questionId=question-1", "",
			http.StatusOK},
		{"progress key validated", http.MethodGet, "/interview/ws/pdf-status/bad", "", http.StatusBadRequest},
		{"progress alias", http.MethodGet, "/interview/ws/progress/bad", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/cards", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ta.server.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestNewApplication_MemoryQueueNeedsEmbeddedWorkers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Orchestration.QueueBackend = bootstrap.QueueMemory

	_, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	assert.ErrorContains(t, err, "embedded workers")
}

func TestAssembleApplication_EmbeddedWorkers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.EmbeddedWorkers = true
	cfg.Orchestration.QueueBackend = bootstrap.QueueMemory

	ta := newTestApp(t, cfg)
	require.NotNil(t, ta.app.taskRunner)
	assert.ElementsMatch(t, domain.AllLanes(), ta.app.taskRunner.Lanes())
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--migrate", "status"}))

	migrate, err := cmd.Flags().GetString("migrate")
	require.NoError(t, err)
	assert.Equal(t, "status", migrate)

	dir, err := cmd.Flags().GetString("migrations-dir")
	require.NoError(t, err)
	assert.Equal(t, "internal/platform/postgres/migrations", dir)
}
