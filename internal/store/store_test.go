// File path: internal/store/store_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: filepath.Join(t.TempDir(), "catalog.db")}
	cfg.applyDefaults()
	s, err := OpenWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := Document{ID: "doc-1", Name: "rfp.pdf", SourcePath: "/tmp/rfp.pdf", ContentHash: "abc", SizeBytes: 42}
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.Document(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "rfp.pdf", got.Name)
	require.Equal(t, StatusUploaded, got.Status)
	require.EqualValues(t, 42, got.SizeBytes)

	require.NoError(t, s.UpdateDocumentStatus(ctx, "doc-1", StatusIndexed, 7))
	got, err = s.Document(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, StatusIndexed, got.Status)
	require.Equal(t, 7, got.ChunkCount)
}

func TestDocumentNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Document(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.UpdateDocumentStatus(context.Background(), "missing", StatusFailed, 0), ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"doc-a", "doc-b"} {
		require.NoError(t, s.SaveDocument(ctx, Document{ID: id, Name: id + ".pdf"}))
	}
	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestSaveDocumentUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, Document{ID: "doc-1", Name: "rfp.pdf", SizeBytes: 10}))
	require.NoError(t, s.SaveDocument(ctx, Document{ID: "doc-1", Name: "rfp-v2.pdf", SizeBytes: 20}))

	got, err := s.Document(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "rfp-v2.pdf", got.Name)
	require.EqualValues(t, 20, got.SizeBytes)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestArtifactUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, Document{ID: "doc-1", Name: "rfp.pdf"}))

	require.NoError(t, s.SaveArtifact(ctx, "doc-1", "questions", `[{"id":"q1"}]`))
	require.NoError(t, s.SaveArtifact(ctx, "doc-1", "questions", `[{"id":"q1"},{"id":"q2"}]`))

	row, err := s.Artifact(ctx, "doc-1", "questions")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"q1"},{"id":"q2"}]`, row.Content)

	_, err = s.Artifact(ctx, "doc-1", "metadata")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveResponses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, Document{ID: "doc-1", Name: "rfp.pdf"}))

	rows := []ResponseRow{
		{DocumentID: "doc-1", QuestionID: "q2", QuestionText: "Second?", ResponseText: "B"},
		{DocumentID: "doc-1", QuestionID: "q1", QuestionText: "First?", ResponseText: "A", Section: "Pricing"},
	}
	require.NoError(t, s.SaveResponses(ctx, rows))

	stored, err := s.ResponsesForDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "q1", stored[0].QuestionID)
	require.Equal(t, "Pricing", stored[0].Section)
	require.Equal(t, "q2", stored[1].QuestionID)

	rows[0].ResponseText = "B2"
	require.NoError(t, s.SaveResponses(ctx, rows[:1]))
	stored, err = s.ResponsesForDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "B2", stored[1].ResponseText)

	require.NoError(t, s.SaveResponses(ctx, nil))
}
