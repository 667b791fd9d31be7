package domain

import (
	"time"

	"github.com/google/uuid"
)

// Preview lengths used for chunk metadata.
const (
	ChunkPreviewRunes       = 50
	StoredChunkPreviewRunes = 200
)

// Chunk is one piece of extracted document text.
type Chunk struct {
	ID          uuid.UUID     `json:"id"`
	UploadID    uuid.UUID     `json:"pdf_upload_id"`
	UserID      string        `json:"user_id"`
	InterviewID uuid.NullUUID `json:"interview_id"`
	Index       int           `json:"chunk_index"`
	Text        string        `json:"chunk_text"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ChunkMetadata is the structured summary extracted from one chunk.
type ChunkMetadata struct {
	ChunkPreview string   `json:"chunk_preview"`
	Topics       []string `json:"topics"`
	KeyPoints    []string `json:"key_points"`
}

// FallbackChunkMetadata is used when extraction fails for a chunk.
func FallbackChunkMetadata(chunk string) ChunkMetadata {
	return ChunkMetadata{
		ChunkPreview: TruncateRunes(chunk, ChunkPreviewRunes),
		Topics:       []string{},
		KeyPoints:    []string{},
	}
}

// ChunkMetadataRecord is a persisted ChunkMetadata row.
type ChunkMetadataRecord struct {
	ID          uuid.UUID     `json:"id"`
	UploadID    uuid.UUID     `json:"pdf_upload_id"`
	UserID      string        `json:"user_id"`
	InterviewID uuid.NullUUID `json:"interview_id"`
	ChunkMetadata
	CreatedAt time.Time `json:"created_at"`
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
