// File path: internal/extract/extractor.go
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/llm"
	"github.com/bidsmith/rfpcopilot/internal/prompt"
	"github.com/bidsmith/rfpcopilot/internal/splitter"
)

const (
	defaultContextLimit = 110000
	defaultChunkOverlap = 1000

	extractionTemperature = 0.2
	summaryTemperature    = 0.3
	summaryMaxTokens      = 4000
)

// Config tunes how large documents are broken up for extraction.
type Config struct {
	// ContextLimit is the token count above which a document no longer fits
	// a single model call.
	ContextLimit int
	// ChunkOverlap is the token overlap between consecutive chunks.
	ChunkOverlap int
}

func (c *Config) applyDefaults() {
	if c.ContextLimit <= 0 {
		c.ContextLimit = defaultContextLimit
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = defaultChunkOverlap
	}
}

// Extractor derives questions, metadata, and the response guide from source
// documents. Results are cached by document content, so reprocessing an
// unchanged document costs no model calls.
type Extractor struct {
	invoker *llm.Invoker
	prompts *prompt.Loader
	cache   *artifact.Cache
	split   *splitter.Splitter
	limit   int
}

func New(invoker *llm.Invoker, prompts *prompt.Loader, cache *artifact.Cache, cfg Config) (*Extractor, error) {
	cfg.applyDefaults()
	split, err := splitter.New(cfg.ContextLimit, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return &Extractor{
		invoker: invoker,
		prompts: prompts,
		cache:   cache,
		split:   split,
		limit:   cfg.ContextLimit,
	}, nil
}

// ExtractQuestions pulls every question and requirement out of the document.
// The response guide is generated first and fed into the extraction prompt
// so requirements land in the right proposal sections.
func (e *Extractor) ExtractQuestions(ctx context.Context, text, title string) ([]artifact.Requirement, error) {
	return artifact.GetOrCompute(e.cache, text, artifact.KindQuestions, func() ([]artifact.Requirement, error) {
		return e.extractQuestions(ctx, text, title)
	})
}

func (e *Extractor) extractQuestions(ctx context.Context, text, title string) ([]artifact.Requirement, error) {
	logger := common.Logger()
	tokens := splitter.CountTokens(text)
	logger.Info("extract: questions", "title", title, "tokens", tokens)

	guide, err := e.CreateResponseGuide(ctx, text, title)
	if err != nil {
		logger.Warn("extract: response guide unavailable, extracting without it", "error", err)
		guide = artifact.Guide{}
	}
	guideSummary := strings.Join(guide.SummaryLines(), "\n")

	vars := map[string]string{
		"document_title":         title,
		"response_guide_summary": guideSummary,
	}

	var all []artifact.Requirement
	if tokens > e.limit {
		logger.Info("extract: document exceeds context limit, processing chunks")
		chunks := e.split.Split(text)
		for i, chunk := range chunks {
			logger.Info("extract: processing chunk", "chunk", i+1, "total", len(chunks))
			vars["document_text"] = chunk.Text
			records, err := e.requestRequirements(ctx, vars)
			if err != nil {
				logger.Error("extract: chunk extraction failed", "chunk", i+1, "error", err)
				continue
			}
			all = append(all, records...)
		}
	} else {
		vars["document_text"] = text
		records, err := e.requestRequirements(ctx, vars)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = FallbackRequirements()
		}
		all = records
	}

	unique := Dedupe(all)
	logger.Info("extract: questions extracted", "total", len(all), "unique", len(unique))
	return unique, nil
}

// requestRequirements runs one extraction call and parses the payload. A
// successful call with an unparseable payload returns (nil, nil); the caller
// chooses the fallback policy.
func (e *Extractor) requestRequirements(ctx context.Context, vars map[string]string) ([]artifact.Requirement, error) {
	p, err := e.prompts.Get("question_extraction", vars)
	if err != nil {
		return nil, err
	}
	raw, err := e.invoker.Chat(ctx, llm.ChatRequest{
		Messages:    llm.SystemUser(p.System, p.User),
		Temperature: extractionTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	records, shape := ParseRequirements(raw)
	if shape == ShapeUnparseable {
		common.Logger().Warn("extract: unparseable extraction payload", "preview", preview(raw))
		return nil, nil
	}
	common.Logger().Debug("extract: payload parsed", "shape", shape.String(), "records", len(records))
	return records, nil
}

// ExtractMetadata pulls structured document metadata. Oversized documents
// are summarized chunk by chunk before the metadata call.
func (e *Extractor) ExtractMetadata(ctx context.Context, text, title string) (artifact.Metadata, error) {
	return artifact.GetOrCompute(e.cache, text, artifact.KindMetadata, func() (artifact.Metadata, error) {
		body, err := e.fitToContext(ctx, text)
		if err != nil {
			return nil, err
		}
		p, err := e.prompts.Get("metadata_extraction", map[string]string{
			"document_title": title,
			"document_text":  body,
		})
		if err != nil {
			return nil, err
		}
		raw, err := e.invoker.Chat(ctx, llm.ChatRequest{
			Messages:    llm.SystemUser(p.System, p.User),
			Temperature: extractionTemperature,
			JSONMode:    true,
		})
		if err != nil {
			return nil, err
		}
		var metadata artifact.Metadata
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			common.Logger().Warn("extract: unparseable metadata payload", "preview", preview(raw))
			metadata = artifact.Metadata{
				"document":             map[string]interface{}{"title": title},
				"issuing_organization": "Not extracted due to parsing error",
				"key_dates":            map[string]interface{}{},
			}
		}
		return metadata, nil
	})
}

// CreateResponseGuide derives the submission guidance artifact from the
// document.
func (e *Extractor) CreateResponseGuide(ctx context.Context, text, title string) (artifact.Guide, error) {
	return artifact.GetOrCompute(e.cache, text, artifact.KindResponseGuide, func() (artifact.Guide, error) {
		body, err := e.fitToContext(ctx, text)
		if err != nil {
			return nil, err
		}
		p, err := e.prompts.Get("response_guide", map[string]string{
			"document_title": title,
			"document_text":  body,
		})
		if err != nil {
			return nil, err
		}
		raw, err := e.invoker.Chat(ctx, llm.ChatRequest{
			Messages:    llm.SystemUser(p.System, p.User),
			Temperature: extractionTemperature,
			JSONMode:    true,
		})
		if err != nil {
			return nil, err
		}
		var guide artifact.Guide
		if err := json.Unmarshal([]byte(raw), &guide); err != nil {
			common.Logger().Warn("extract: unparseable response guide payload", "preview", preview(raw))
			guide = artifact.Guide{
				"submission_structure": []interface{}{
					map[string]interface{}{
						"section":     "Executive Summary",
						"description": "Brief overview of your proposal",
					},
				},
				"response_format": "Standard document format",
				"note":            "Failed to parse model response",
			}
		}
		return guide, nil
	})
}

// fitToContext returns text unchanged when it fits the context limit and a
// concatenation of per-chunk summaries otherwise.
func (e *Extractor) fitToContext(ctx context.Context, text string) (string, error) {
	if splitter.CountTokens(text) <= e.limit {
		return text, nil
	}
	logger := common.Logger()
	logger.Info("extract: document exceeds context limit, summarizing chunks")
	chunks := e.split.Split(text)
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		logger.Info("extract: summarizing chunk", "chunk", i+1, "total", len(chunks))
		p, err := e.prompts.Get("summarize", map[string]string{"text": chunk.Text})
		if err != nil {
			return "", err
		}
		summary, err := e.invoker.Chat(ctx, llm.ChatRequest{
			Messages:    llm.SystemUser(p.System, p.User),
			Temperature: summaryTemperature,
			MaxTokens:   summaryMaxTokens,
		})
		if err != nil {
			logger.Error("extract: chunk summarization failed, keeping original text", "chunk", i+1, "error", err)
			summary = chunk.Text
		}
		summaries = append(summaries, summary)
	}
	return strings.Join(summaries, "\n\n"), nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return s
}
