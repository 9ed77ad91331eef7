// File path: internal/store/queries.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SaveDocument inserts a document row or refreshes an existing one.
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("document id required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (id, name, source_path, content_hash, size_bytes, status)
                VALUES (?, ?, ?, ?, ?, ?)
                ON CONFLICT(id) DO UPDATE SET
                        name = excluded.name,
                        source_path = excluded.source_path,
                        content_hash = excluded.content_hash,
                        size_bytes = excluded.size_bytes,
                        status = excluded.status,
                        updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Name, doc.SourcePath, doc.ContentHash, doc.SizeBytes, statusOrDefault(doc.Status))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Document retrieves a single document by ID.
func (s *Store) Document(ctx context.Context, id string) (*Document, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var doc Document
	if err := s.db.GetContext(ctx, &doc, `SELECT * FROM documents WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns all documents, most recently uploaded first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	docs := []Document{}
	if err := s.db.SelectContext(ctx, &docs, `SELECT * FROM documents ORDER BY created_at DESC, id`); err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	return docs, nil
}

// UpdateDocumentStatus records pipeline progress for a document.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id, status string, chunkCount int) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	result, err := s.db.ExecContext(ctx, `UPDATE documents
                SET status = ?, chunk_count = ?, updated_at = CURRENT_TIMESTAMP
                WHERE id = ?`, status, chunkCount, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	return nil
}

// SaveArtifact stores a serialized extraction artifact, replacing any
// previous artifact of the same kind for the document.
func (s *Store) SaveArtifact(ctx context.Context, documentID, kind, content string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO artifacts (document_id, kind, content)
                VALUES (?, ?, ?)
                ON CONFLICT(document_id, kind) DO UPDATE SET
                        content = excluded.content,
                        created_at = CURRENT_TIMESTAMP`,
		documentID, kind, content)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Artifact retrieves the stored artifact of the given kind for a document.
func (s *Store) Artifact(ctx context.Context, documentID, kind string) (*ArtifactRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var row ArtifactRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM artifacts WHERE document_id = ? AND kind = ?`, documentID, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: artifact %s/%s", ErrNotFound, documentID, kind)
		}
		return nil, fmt.Errorf("select artifact: %w", err)
	}
	return &row, nil
}

// SaveResponses stores a batch of generated answers in one transaction.
func (s *Store) SaveResponses(ctx context.Context, rows []ResponseRow) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin responses: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO responses (document_id, question_id, question_text, response_text, section, payload)
                        VALUES (?, ?, ?, ?, ?, ?)
                        ON CONFLICT(document_id, question_id) DO UPDATE SET
                                question_text = excluded.question_text,
                                response_text = excluded.response_text,
                                section = excluded.section,
                                payload = excluded.payload,
                                created_at = CURRENT_TIMESTAMP`,
			row.DocumentID, row.QuestionID, row.QuestionText, row.ResponseText, row.Section, row.Payload); err != nil {
			tx.Rollback()
			return fmt.Errorf("save response %s: %w", row.QuestionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit responses: %w", err)
	}
	return nil
}

// ResponsesForDocument returns stored answers ordered by question ID.
func (s *Store) ResponsesForDocument(ctx context.Context, documentID string) ([]ResponseRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	rows := []ResponseRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM responses WHERE document_id = ? ORDER BY question_id`, documentID); err != nil {
		return nil, fmt.Errorf("select responses: %w", err)
	}
	return rows, nil
}

func statusOrDefault(status string) string {
	if strings.TrimSpace(status) == "" {
		return StatusUploaded
	}
	return status
}
