package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/events"
	"github.com/phrazzld/mockview-api/internal/notify"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
)

const (
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = (wsPongWait * 9) / 10
	wsMaxMessageBytes = 64 << 10
	wsEventBuffer     = 32
)

// Watcher follows a key until it reaches a terminal state.
type Watcher interface {
	Watch(ctx context.Context, sub notify.Subscription, emitter events.Emitter) error
}

// WSHandler serves the WebSocket endpoints. Each connection has a single
// writer goroutine fed by a ChannelEmitter; watches run one goroutine per
// pending request and stop when the client goes away.
type WSHandler struct {
	jobs     JobDispatcher
	watcher  Watcher
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// closing is cancelled by Shutdown and ends every open session.
	closing  context.Context
	closeAll context.CancelFunc
}

// NewWSHandler creates a WSHandler. allowOrigin decides cross-origin
// upgrades; nil accepts every origin.
func NewWSHandler(jobs JobDispatcher, watcher Watcher, allowOrigin func(*http.Request) bool, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	closing, closeAll := context.WithCancel(context.Background())
	return &WSHandler{
		jobs:    jobs,
		watcher: watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
		logger:   logger.With("component", "ws_handler"),
		closing:  closing,
		closeAll: closeAll,
	}
}

// Shutdown ends all open sessions. Hijacked connections are not tracked by
// http.Server.Shutdown, so register this with RegisterOnShutdown.
func (h *WSHandler) Shutdown() {
	h.closeAll()
}

// ServeJobs handles GET /interview/ws. Every start_job or start_question
// request is answered with processing and then exactly one ready or error
// event, or with ready at once on a cache hit.
func (h *WSHandler) ServeJobs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger).With("socket", "jobs")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(h.closing, cancel)
	defer stop()
	session := newWSSession(conn, log)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		session.writeLoop(ctx, cancel)
	}()

	var watches sync.WaitGroup
	for {
		payload, err := session.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.DebugContext(ctx, "websocket read failed", "error", err)
			}
			break
		}

		var req events.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			session.emit(ctx, events.Event{Event: events.KindError, Error: "Invalid request format"})
			continue
		}
		h.handleRequest(ctx, session, req, &watches)
	}

	cancel()
	watches.Wait()
	session.emitter.Close()
	<-writerDone
	session.close()
	log.DebugContext(r.Context(), "websocket closed")
}

func (h *WSHandler) handleRequest(ctx context.Context, session *wsSession, req events.Request, watches *sync.WaitGroup) {
	key, input, err := req.Resolve()
	if err != nil {
		session.emit(ctx, events.Event{
			Event:      events.KindError,
			QuestionID: req.QuestionID,
			Error:      GetSafeErrorMessage(err),
		})
		return
	}

	res, err := h.jobs.GetOrGenerate(ctx, key, input)
	if err != nil {
		session.log.WarnContext(ctx, "dispatch failed", "key", key.String(), "error", err)
		session.emit(ctx, withQuestion(events.Failed(key, GetSafeErrorMessage(err)), req.QuestionID))
		return
	}
	if res.Ready() {
		session.emit(ctx, withQuestion(events.Ready(key), req.QuestionID))
		return
	}

	session.emit(ctx, withQuestion(events.Processing(key), req.QuestionID))

	watches.Add(1)
	go func() {
		defer watches.Done()
		sub := notify.Subscription{Key: key, Mode: notify.ModeCache, QuestionID: req.QuestionID}
		if err := h.watcher.Watch(ctx, sub, session.emitter); err != nil && !errors.Is(err, context.Canceled) {
			session.log.DebugContext(ctx, "watch ended", "key", key.String(), "error", err)
		}
	}()
}

// ServeProgress handles GET /interview/ws/pdf-status/{key}. It pushes every
// changed progress record and closes after the terminal one.
func (h *WSHandler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("key", "has invalid format", domain.ErrInvalidKey), "")
		return
	}
	key, err := domain.ParseResourceKey(raw)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger).With("socket", "progress", "key", key.String())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.closing, cancel)
	defer stop()
	session := newWSSession(conn, log)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		session.writeLoop(ctx, cancel)
	}()

	// The client sends nothing; reading only notices the disconnect.
	go func() {
		for {
			if _, err := session.read(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = h.watcher.Watch(ctx, notify.Subscription{Key: key, Mode: notify.ModeProgress}, session.emitter)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.DebugContext(ctx, "progress watch ended", "error", err)
	}

	session.emitter.Close()
	<-writerDone
	cancel()
	session.close()
}

func withQuestion(e events.Event, questionID string) events.Event {
	e.QuestionID = questionID
	return e
}

// wsSession owns one connection. Only writeLoop writes data frames.
type wsSession struct {
	conn    *websocket.Conn
	emitter *events.ChannelEmitter
	log     *slog.Logger
}

func newWSSession(conn *websocket.Conn, log *slog.Logger) *wsSession {
	conn.SetReadLimit(wsMaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return &wsSession{
		conn:    conn,
		emitter: events.NewChannelEmitter(wsEventBuffer, log),
		log:     log,
	}
}

// read returns the next data message and extends the read deadline.
func (s *wsSession) read() ([]byte, error) {
	_, payload, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	return payload, nil
}

func (s *wsSession) emit(ctx context.Context, event events.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.log.DebugContext(ctx, "event dropped", "event", event.Event, "error", err)
	}
}

// writeLoop sends queued events and keep-alive pings. After the emitter is
// closed it flushes what is queued and sends a close frame. A failed write
// cancels the session; a cancelled session closes the connection.
func (s *wsSession) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.emitter.Events():
			if err := s.write(event); err != nil {
				s.fail(cancel, err)
				return
			}
		case <-s.emitter.Done():
			s.flush()
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case <-ctx.Done():
			// Unblocks the reader.
			_ = s.conn.Close()
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				s.fail(cancel, err)
				return
			}
		}
	}
}

func (s *wsSession) flush() {
	for {
		select {
		case event := <-s.emitter.Events():
			if err := s.write(event); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *wsSession) write(event events.Event) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(event)
}

func (s *wsSession) fail(cancel context.CancelFunc, err error) {
	s.log.Debug("websocket write failed", "error", err)
	cancel()
	// Unblocks the reader.
	_ = s.conn.Close()
}

func (s *wsSession) close() {
	_ = s.conn.Close()
}
