package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/events"
	"github.com/phrazzld/mockview-api/internal/notify"
	"github.com/phrazzld/mockview-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memCache is an in-memory store.ResultCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Put(_ context.Context, key domain.ResourceKey, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key.String()] = payload
	return nil
}

func (c *memCache) Get(_ context.Context, key domain.ResourceKey) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.data[key.String()]
	return payload, ok, nil
}

// memProgress is an in-memory store.ProgressTracker.
type memProgress struct {
	mu      sync.Mutex
	records map[string]domain.ProgressRecord
}

func newMemProgress() *memProgress {
	return &memProgress{records: make(map[string]domain.ProgressRecord)}
}

func (p *memProgress) Set(_ context.Context, record domain.ProgressRecord, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[record.Key.String()] = record
	return nil
}

func (p *memProgress) Get(_ context.Context, key domain.ResourceKey) (*domain.ProgressRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record, ok := p.records[key.String()]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return &record, nil
}

type wsFixture struct {
	jobs     *MockJobDispatcher
	cache    *memCache
	progress *memProgress
	handler  *WSHandler
	server   *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	f := &wsFixture{
		jobs:     new(MockJobDispatcher),
		cache:    newMemCache(),
		progress: newMemProgress(),
	}
	bridge := notify.NewBridge(f.cache, f.progress, notify.Config{
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
	}, testLogger())
	f.handler = NewWSHandler(f.jobs, bridge, nil, testLogger())

	r := chi.NewRouter()
	r.Get("/interview/ws", f.handler.ServeJobs)
	r.Get("/interview/ws/pdf-status/{key}", f.handler.ServeProgress)
	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func (f *wsFixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestWSHandler_ServeJobs(t *testing.T) {
	key := domain.SpeechKey("interview-1", "question-1")

	t.Run("cache hit answers ready at once", func(t *testing.T) {
		f := newWSFixture(t)
		f.jobs.On("GetOrGenerate", mock.Anything, key, domain.SpeechInput{Text: "Tell me about yourself"}).
			Return(&dispatch.Result{Key: key, Outcome: dispatch.OutcomeCached, Payload: []byte("wav")}, nil)
		conn := f.dial(t, "/interview/ws")

		require.NoError(t, conn.WriteJSON(events.Request{
			Action:      events.ActionStartQuestion,
			InterviewID: "interview-1",
			QuestionID:  "question-1",
			Text:        "Tell me about yourself",
		}))

		event := readEvent(t, conn)
		assert.Equal(t, events.KindReady, event.Event)
		assert.Equal(t, key.String(), event.Key)
		assert.Equal(t, "question-1", event.QuestionID)
	})

	t.Run("pending job is followed until ready", func(t *testing.T) {
		f := newWSFixture(t)
		f.jobs.On("GetOrGenerate", mock.Anything, key, nil).
			Return(&dispatch.Result{Key: key, Outcome: dispatch.OutcomeEnqueued}, nil)
		conn := f.dial(t, "/interview/ws")

		require.NoError(t, conn.WriteJSON(events.Request{
			Action: events.ActionStartJob,
			Key:    &events.KeyRef{Domain: key.Domain, SubjectID: key.SubjectID, ItemID: key.ItemID},
		}))

		first := readEvent(t, conn)
		assert.Equal(t, events.KindProcessing, first.Event)

		require.NoError(t, f.cache.Put(context.Background(), key, []byte("wav"), time.Minute))

		second := readEvent(t, conn)
		assert.Equal(t, events.KindReady, second.Event)
		assert.Equal(t, key.String(), second.Key)
	})

	t.Run("upload jobs cannot be started over the socket", func(t *testing.T) {
		f := newWSFixture(t)
		conn := f.dial(t, "/interview/ws")

		require.NoError(t, conn.WriteJSON(events.Request{
			Action: events.ActionStartJob,
			Key:    &events.KeyRef{Domain: domain.DomainTranscript, SubjectID: "attempt-1", ItemID: "question-1"},
			Input:  []byte(`{"audio_path":"/etc/passwd"}`),
		}))

		event := readEvent(t, conn)
		assert.Equal(t, events.KindError, event.Event)
		assert.Equal(t, "Invalid request", event.Error)
		f.jobs.AssertNotCalled(t, "GetOrGenerate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dispatch failure is reported", func(t *testing.T) {
		f := newWSFixture(t)
		f.jobs.On("GetOrGenerate", mock.Anything, mock.Anything, mock.Anything).Return(nil, dispatch.ErrUnavailable)
		conn := f.dial(t, "/interview/ws")

		require.NoError(t, conn.WriteJSON(events.Request{
			Action:      events.ActionStartQuestion,
			InterviewID: "interview-1",
			QuestionID:  "question-1",
			Text:        "Hi",
		}))

		event := readEvent(t, conn)
		assert.Equal(t, events.KindError, event.Event)
		assert.Equal(t, "Service temporarily unavailable", event.Error)
		assert.Equal(t, "question-1", event.QuestionID)
	})

	t.Run("bad messages keep the socket open", func(t *testing.T) {
		f := newWSFixture(t)
		f.jobs.On("GetOrGenerate", mock.Anything, key, mock.Anything).
			Return(&dispatch.Result{Key: key, Outcome: dispatch.OutcomeCached}, nil)
		conn := f.dial(t, "/interview/ws")

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		event := readEvent(t, conn)
		assert.Equal(t, events.KindError, event.Event)
		assert.Equal(t, "Invalid request format", event.Error)

		require.NoError(t, conn.WriteJSON(events.Request{Action: "delete_everything"}))
		event = readEvent(t, conn)
		assert.Equal(t, events.KindError, event.Event)
		assert.Equal(t, "Invalid request", event.Error)

		require.NoError(t, conn.WriteJSON(events.Request{
			Action:      events.ActionStartQuestion,
			InterviewID: "interview-1",
			QuestionID:  "question-1",
			Text:        "Hi",
		}))
		event = readEvent(t, conn)
		assert.Equal(t, events.KindReady, event.Event)
	})
}

func TestWSHandler_ServeProgress(t *testing.T) {
	key := domain.DocumentKey("user-1", "upload-1")

	t.Run("forwards progress and closes after the terminal record", func(t *testing.T) {
		f := newWSFixture(t)
		ctx := context.Background()
		require.NoError(t, f.progress.Set(ctx, domain.ProgressRecord{
			Key: key, Status: domain.ProgressProcessing, Fraction: 0.25,
		}, time.Minute))
		conn := f.dial(t, "/interview/ws/pdf-status/"+key.String())

		first := readEvent(t, conn)
		assert.Equal(t, events.KindProgress, first.Event)
		require.NotNil(t, first.Progress)
		assert.Equal(t, 25, *first.Progress)

		require.NoError(t, f.progress.Set(ctx, domain.ProgressRecord{
			Key: key, Status: domain.ProgressDone, Fraction: 1,
		}, time.Minute))

		last := readEvent(t, conn)
		assert.Equal(t, events.KindReady, last.Event)
		require.NotNil(t, last.Progress)
		assert.Equal(t, 100, *last.Progress)

		_, _, err := conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.True(t, errors.As(err, &closeErr), "expected close frame, got %v", err)
		assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	})

	t.Run("failed job", func(t *testing.T) {
		f := newWSFixture(t)
		require.NoError(t, f.progress.Set(context.Background(), domain.ProgressRecord{
			Key: key, Status: domain.ProgressError, ErrorDetail: "no text found",
		}, time.Minute))
		conn := f.dial(t, "/interview/ws/pdf-status/"+key.String())

		event := readEvent(t, conn)
		assert.Equal(t, events.KindError, event.Event)
		assert.Equal(t, "no text found", event.Error)
	})

	t.Run("invalid key is rejected before upgrade", func(t *testing.T) {
		f := newWSFixture(t)

		resp, err := http.Get(f.server.URL + "/interview/ws/pdf-status/not-a-key")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestWSHandler_Shutdown(t *testing.T) {
	f := newWSFixture(t)
	key := domain.SpeechKey("interview-1", "question-1")
	f.jobs.On("GetOrGenerate", mock.Anything, key, mock.Anything).
		Return(&dispatch.Result{Key: key, Outcome: dispatch.OutcomePending}, nil)
	conn := f.dial(t, "/interview/ws")

	require.NoError(t, conn.WriteJSON(events.Request{
		Action:      events.ActionStartQuestion,
		InterviewID: "interview-1",
		QuestionID:  "question-1",
		Text:        "Hi",
	}))
	assert.Equal(t, events.KindProcessing, readEvent(t, conn).Event)

	f.handler.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "session should end before the read deadline")
	}
}
