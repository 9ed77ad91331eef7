// File path: internal/knowledge/embedder.go
package knowledge

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/llm"
)

const defaultDimension = 768

// Embedder wraps the provider's embedding endpoint. Failures degrade to
// zero vectors of the configured dimension so indexing and retrieval keep
// moving; a zero vector simply matches nothing well.
type Embedder struct {
	provider llm.Provider
	dim      int
}

// NewEmbedder builds an embedder around provider. dim <= 0 selects the
// default dimension, overridable through EMBEDDING_DIM.
func NewEmbedder(provider llm.Provider, dim int) *Embedder {
	if dim <= 0 {
		dim = defaultDimension
		if raw := strings.TrimSpace(os.Getenv("EMBEDDING_DIM")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				dim = parsed
			}
		}
	}
	return &Embedder{provider: provider, dim: dim}
}

// Dimension reports the fallback vector width.
func (e *Embedder) Dimension() int {
	return e.dim
}

// EmbedQuery embeds a single query string, returning a zero vector when the
// provider fails.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) []float32 {
	vectors := e.EmbedTexts(ctx, []string{text})
	return vectors[0]
}

// EmbedTexts embeds a batch of texts. On provider failure every position is
// filled with a zero vector.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) [][]float32 {
	logger := common.Logger()
	vectors, err := e.provider.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		logger.Warn("knowledge: embedding failed, using zero vectors",
			"items", len(texts), "returned", len(vectors), "error", err)
		fallback := make([][]float32, len(texts))
		for i := range fallback {
			fallback[i] = make([]float32, e.dim)
		}
		return fallback
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			vectors[i] = make([]float32, e.dim)
		}
	}
	return vectors
}
