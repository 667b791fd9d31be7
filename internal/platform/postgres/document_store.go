package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// PostgresDocumentStore implements store.DocumentStore over the pdf_chunks
// and pdf_structured_data tables.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// NewPostgresDocumentStore creates a document store on db.
func NewPostgresDocumentStore(db store.DBTX, log *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresDocumentStore{
		db:     db,
		logger: log.With(slog.String("component", "document_store")),
	}
}

// WithTx implements store.DocumentStore.
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{db: tx, logger: s.logger}
}

// SaveChunks implements store.DocumentStore.
func (s *PostgresDocumentStore) SaveChunks(ctx context.Context, chunks []*domain.Chunk) error {
	for _, c := range chunks {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO pdf_chunks (id, pdf_upload_id, user_id, interview_id, chunk_index, chunk_text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, c.ID, c.UploadID, c.UserID, c.InterviewID, c.Index, c.Text, c.CreatedAt); err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert chunk",
				slog.String("error", err.Error()),
				slog.String("upload_id", c.UploadID.String()),
				slog.Int("chunk_index", c.Index))
			return MapError(err)
		}
	}
	return nil
}

// SaveChunkMetadata implements store.DocumentStore. Previews are cut to
// domain.StoredChunkPreviewRunes.
func (s *PostgresDocumentStore) SaveChunkMetadata(ctx context.Context, records []*domain.ChunkMetadataRecord) error {
	for _, r := range records {
		topics, err := marshalStrings(r.Topics)
		if err != nil {
			return err
		}
		keyPoints, err := marshalStrings(r.KeyPoints)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO pdf_structured_data (id, pdf_upload_id, user_id, interview_id, chunk_preview, topics, key_points, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			r.ID, r.UploadID, r.UserID, r.InterviewID,
			domain.TruncateRunes(r.ChunkPreview, domain.StoredChunkPreviewRunes),
			topics, keyPoints, r.CreatedAt,
		); err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert chunk metadata",
				slog.String("error", err.Error()),
				slog.String("upload_id", r.UploadID.String()))
			return MapError(err)
		}
	}
	return nil
}

// ListChunksByInterview implements store.DocumentStore.
func (s *PostgresDocumentStore) ListChunksByInterview(ctx context.Context, interviewID uuid.UUID, limit int) ([]*domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pdf_upload_id, user_id, interview_id, chunk_index, chunk_text, created_at
		FROM pdf_chunks
		WHERE interview_id = $1
		ORDER BY created_at, chunk_index
		LIMIT $2
	`, interviewID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.UploadID, &c.UserID, &c.InterviewID, &c.Index, &c.Text, &c.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return chunks, nil
}

// ListMetadataByInterview implements store.DocumentStore.
func (s *PostgresDocumentStore) ListMetadataByInterview(
	ctx context.Context,
	interviewID uuid.UUID,
	limit int,
) ([]*domain.ChunkMetadataRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pdf_upload_id, user_id, interview_id, chunk_preview, topics, key_points, created_at
		FROM pdf_structured_data
		WHERE interview_id = $1
		ORDER BY created_at
		LIMIT $2
	`, interviewID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var records []*domain.ChunkMetadataRecord
	for rows.Next() {
		var (
			r                 domain.ChunkMetadataRecord
			topics, keyPoints []byte
		)
		if err := rows.Scan(&r.ID, &r.UploadID, &r.UserID, &r.InterviewID, &r.ChunkPreview,
			&topics, &keyPoints, &r.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		if r.Topics, err = unmarshalStrings(topics); err != nil {
			return nil, err
		}
		if r.KeyPoints, err = unmarshalStrings(keyPoints); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}
