// File path: internal/knowledge/service.go
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/splitter"
	"github.com/bidsmith/rfpcopilot/internal/vector"
)

const defaultTopK = 5

// Chunk is one retrieved knowledge passage with its provenance and a
// similarity score in [0, 1].
type Chunk struct {
	Text     string                 `json:"text"`
	Source   string                 `json:"source"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Service retrieves supporting passages from the vector index and ingests
// new documents into it.
type Service struct {
	store    vector.Store
	embedder *Embedder
	split    *splitter.Splitter
}

// NewService wires retrieval over store with embedder. split governs how
// ingested documents are chunked.
func NewService(store vector.Store, embedder *Embedder, split *splitter.Splitter) *Service {
	return &Service{store: store, embedder: embedder, split: split}
}

// FindRelevant returns up to k passages relevant to query, best first.
// Retrieval is best effort: any failure, including an unavailable index,
// yields an empty result rather than an error so response generation can
// proceed without supporting knowledge.
func (s *Service) FindRelevant(ctx context.Context, query string, k int) []Chunk {
	logger := common.Logger()
	if k <= 0 {
		k = defaultTopK
	}
	preview := query
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	logger.Info("knowledge: searching", "query", preview, "k", k)

	if s.store == nil {
		logger.Warn("knowledge: no vector store configured")
		return []Chunk{}
	}

	vec := s.embedder.EmbedQuery(ctx, query)

	results, err := s.store.QueryScored(ctx, vec, k)
	if errors.Is(err, vector.ErrUnsupported) {
		logger.Info("knowledge: scored query unsupported, trying relevance scores")
		results, err = s.store.QueryRelevance(ctx, vec, k)
	}
	if errors.Is(err, vector.ErrUnsupported) {
		logger.Info("knowledge: relevance query unsupported, falling back to plain search")
		results, err = s.store.QueryPlain(ctx, vec, k)
	}
	if err != nil {
		logger.Error("knowledge: search failed", "error", err)
		return []Chunk{}
	}

	chunks := make([]Chunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, Chunk{
			Text:     result.Document,
			Source:   artifact.SourceLabel(result.Metadata),
			Score:    similarity(result),
			Metadata: result.Metadata,
		})
	}
	logger.Info("knowledge: returning results", "count", len(chunks))
	return chunks
}

// similarity converts a raw backend score to a similarity in [0, 1].
// Distances at or beyond 1.0 collapse to zero; unscored results carry zero.
func similarity(result vector.SearchResult) float64 {
	if !result.HasScore {
		return 0.0
	}
	score := result.Score
	if score > 1.0 {
		score = 1.0
	}
	sim := 1.0 - score
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim
}

// IndexDocument splits text into token-bounded chunks, embeds them, and
// upserts them into the vector index. It returns the number of chunks
// written.
func (s *Service) IndexDocument(ctx context.Context, docID, docName, source, text string) (int, error) {
	logger := common.Logger()
	if s.store == nil {
		return 0, errors.New("knowledge: no vector store configured")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, nil
	}
	pieces := s.split.Split(trimmed)
	chunks := make([]vector.Chunk, 0, len(pieces))
	texts := make([]string, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, vector.Chunk{
			ID:   fmt.Sprintf("%s-chunk-%d", docID, i),
			Text: piece.Text,
			Metadata: map[string]interface{}{
				"doc_name":    docName,
				"source":      source,
				"chunk_index": i,
			},
		})
		texts = append(texts, piece.Text)
	}
	vectors := s.embedder.EmbedTexts(ctx, texts)
	if err := s.store.UpsertChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("knowledge: index document %s: %w", docID, err)
	}
	logger.Info("knowledge: document indexed", "doc", docID, "chunks", len(chunks))
	return len(chunks), nil
}
