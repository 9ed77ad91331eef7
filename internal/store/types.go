// File path: internal/store/types.go
package store

import "time"

// Document statuses as a document moves through the pipeline.
const (
	StatusUploaded  = "uploaded"
	StatusIndexed   = "indexed"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Document represents an uploaded RFP document row.
type Document struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SourcePath  string    `db:"source_path" json:"source_path,omitempty"`
	ContentHash string    `db:"content_hash" json:"content_hash,omitempty"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Status      string    `db:"status" json:"status"`
	ChunkCount  int       `db:"chunk_count" json:"chunk_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ArtifactRow stores a serialized extraction artifact for a document.
type ArtifactRow struct {
	ID         int64     `db:"id"`
	DocumentID string    `db:"document_id"`
	Kind       string    `db:"kind"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
}

// ResponseRow stores a generated answer for one extracted question.
type ResponseRow struct {
	ID           int64     `db:"id"`
	DocumentID   string    `db:"document_id"`
	QuestionID   string    `db:"question_id"`
	QuestionText string    `db:"question_text"`
	ResponseText string    `db:"response_text"`
	Section      string    `db:"section"`
	Payload      string    `db:"payload"`
	CreatedAt    time.Time `db:"created_at"`
}
