package task

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/filestore"
	"github.com/phrazzld/mockview-api/internal/store"
	"github.com/stretchr/testify/require"
)

func newUploads(t *testing.T) *filestore.Store {
	t.Helper()
	s, err := filestore.New(filepath.Join(t.TempDir(), "uploads"), testLogger())
	require.NoError(t, err)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memCache is a map-backed store.ResultCache.
type memCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	putErr error
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Put(_ context.Context, key domain.ResourceKey, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.items[key.String()] = payload
	return nil
}

func (c *memCache) Get(_ context.Context, key domain.ResourceKey) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key.String()]
	return v, ok, nil
}

// recordingProgress keeps every record written to it.
type recordingProgress struct {
	mu      sync.Mutex
	records []domain.ProgressRecord
}

func (p *recordingProgress) Set(_ context.Context, record domain.ProgressRecord, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)
	return nil
}

func (p *recordingProgress) Get(_ context.Context, key domain.ResourceKey) (*domain.ProgressRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.records) - 1; i >= 0; i-- {
		if p.records[i].Key == key {
			r := p.records[i]
			return &r, nil
		}
	}
	return nil, store.ErrProgressNotFound
}

func (p *recordingProgress) all() []domain.ProgressRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ProgressRecord(nil), p.records...)
}

func (p *recordingProgress) last() domain.ProgressRecord {
	all := p.all()
	return all[len(all)-1]
}

type synthFunc func(ctx context.Context, text string) ([]byte, error)

func (f synthFunc) Synthesize(ctx context.Context, text string) ([]byte, error) { return f(ctx, text) }

type transcribeFunc func(ctx context.Context, path string) (string, error)

func (f transcribeFunc) Transcribe(ctx context.Context, path string) (string, error) { return f(ctx, path) }

type extractFunc func(ctx context.Context, path string) ([]string, error)

func (f extractFunc) ExtractChunks(ctx context.Context, path string) ([]string, error) { return f(ctx, path) }

// fakeAnswerStore implements store.AnswerStore with function fields.
type fakeAnswerStore struct {
	SaveTranscriptFn func(ctx context.Context, attemptID, questionID uuid.UUID, transcript string) error
}

func (f *fakeAnswerStore) UpsertAudio(context.Context, *domain.Answer) error { return nil }

func (f *fakeAnswerStore) SaveTranscript(ctx context.Context, attemptID, questionID uuid.UUID, transcript string) error {
	return f.SaveTranscriptFn(ctx, attemptID, questionID, transcript)
}

func (f *fakeAnswerStore) MarkScored(context.Context, uuid.UUID, []uuid.UUID) error { return nil }

func (f *fakeAnswerStore) ListByAttempt(context.Context, uuid.UUID) ([]*domain.Answer, error) {
	return nil, nil
}

// fakeDocumentStore records saved chunks and metadata.
type fakeDocumentStore struct {
	chunks   []*domain.Chunk
	metadata []*domain.ChunkMetadataRecord
	saveErr  error
}

func (f *fakeDocumentStore) SaveChunks(_ context.Context, chunks []*domain.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeDocumentStore) SaveChunkMetadata(_ context.Context, records []*domain.ChunkMetadataRecord) error {
	f.metadata = append(f.metadata, records...)
	return nil
}

func (f *fakeDocumentStore) ListChunksByInterview(context.Context, uuid.UUID, int) ([]*domain.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeDocumentStore) ListMetadataByInterview(context.Context, uuid.UUID, int) ([]*domain.ChunkMetadataRecord, error) {
	return f.metadata, nil
}

func (f *fakeDocumentStore) WithTx(*sql.Tx) store.DocumentStore { return f }

type scorerFunc func(ctx context.Context, attemptID, interviewID uuid.UUID, userID string, progress func(done, total int)) (*domain.ScoringReport, error)

func (f scorerFunc) ScoreAttempt(ctx context.Context, attemptID, interviewID uuid.UUID, userID string, progress func(done, total int)) (*domain.ScoringReport, error) {
	return f(ctx, attemptID, interviewID, userID, progress)
}

func mustJob(t *testing.T, lane domain.Lane, key domain.ResourceKey, input any) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(lane, key, input)
	require.NoError(t, err)
	return job
}
