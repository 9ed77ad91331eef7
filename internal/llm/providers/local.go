// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one completion call. JSONMode asks the backend to
// constrain output to a single JSON object when it supports that.
type ChatRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// LocalProvider is the offline fallback used when no API key is configured.
// Chat echoes the last user message and embeddings are deterministic hashes,
// enough to exercise the pipeline end to end without network access.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1].Content
	if req.JSONMode {
		return "{}", nil
	}
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = hashVector(text, 8)
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for j := 0; j < dim; j++ {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", j, text)
		vec[j] = float32(h.Sum32()%1000) / 1000
	}
	return vec
}
