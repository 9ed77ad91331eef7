// File path: internal/knowledge/embedder_test.go
package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/bidsmith/rfpcopilot/internal/llm"
)

// stubEmbedProvider returns fixed-width unit vectors for every input.
type stubEmbedProvider struct{}

func (stubEmbedProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", errors.New("chat not supported")
}

func (stubEmbedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{1, 0, 0, 0}
	}
	return vectors, nil
}

func (stubEmbedProvider) Name() string { return "stub" }

// failingProvider always errors.
type failingProvider struct{}

func (failingProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", errors.New("unavailable")
}

func (failingProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("unavailable")
}

func (failingProvider) Name() string { return "failing" }

func TestEmbedQueryZeroVectorFallback(t *testing.T) {
	embedder := NewEmbedder(failingProvider{}, 768)
	vec := embedder.EmbedQuery(context.Background(), "what is the due date")
	if len(vec) != 768 {
		t.Fatalf("expected 768-dim fallback vector, got %d", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("fallback vector should be all zeros, found %v at %d", v, i)
		}
	}
}

func TestEmbedTextsPassThrough(t *testing.T) {
	embedder := NewEmbedder(stubEmbedProvider{}, 4)
	vectors := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 {
		t.Fatalf("provider vectors should pass through unchanged: %v", vectors[0])
	}
}

func TestEmbedTextsShortResponseFallsBack(t *testing.T) {
	embedder := NewEmbedder(truncatingProvider{}, 3)
	vectors := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	if len(vectors) != 2 {
		t.Fatalf("expected vector per input, got %d", len(vectors))
	}
	for _, vec := range vectors {
		if len(vec) != 3 {
			t.Fatalf("expected fallback dimension 3, got %d", len(vec))
		}
	}
}

// truncatingProvider returns fewer vectors than inputs.
type truncatingProvider struct{}

func (truncatingProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", errors.New("chat not supported")
}

func (truncatingProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return [][]float32{{0.5}}, nil
}

func (truncatingProvider) Name() string { return "truncating" }
