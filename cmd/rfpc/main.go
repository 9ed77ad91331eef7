// File path: cmd/rfpc/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bidsmith/rfpcopilot/internal/api"
	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/docparse"
	"github.com/bidsmith/rfpcopilot/internal/extract"
	"github.com/bidsmith/rfpcopilot/internal/knowledge"
	"github.com/bidsmith/rfpcopilot/internal/llm"
	"github.com/bidsmith/rfpcopilot/internal/prompt"
	"github.com/bidsmith/rfpcopilot/internal/respond"
	"github.com/bidsmith/rfpcopilot/internal/splitter"
	"github.com/bidsmith/rfpcopilot/internal/store"
	"github.com/bidsmith/rfpcopilot/internal/vector"

	"github.com/google/uuid"
)

const (
	knowledgeChunkTokens  = 2048
	knowledgeChunkOverlap = 200
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("rfpc: .env file not loaded", "error", err)
	} else {
		logger.Info("rfpc: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite catalog database")
	cacheDir := flag.String("cache", defaultCacheDir(), "directory for extraction artifact cache files")
	uploadDir := flag.String("uploads", "", "directory for uploaded documents (default: system temp)")
	promptDir := flag.String("prompts", strings.TrimSpace(os.Getenv("PROMPT_DIR")), "directory of prompt template overrides")
	knowledgeDir := flag.String("knowledge", strings.TrimSpace(os.Getenv("KNOWLEDGE_DIR")), "directory of knowledge documents to index at startup")
	contextLimit := flag.Int("context-limit", 0, "token budget before document chunking (0 uses defaults)")
	chunkOverlap := flag.Int("chunk-overlap", 0, "token overlap between document chunks (0 uses defaults)")
	flag.Parse()

	logger.Info("rfpc: startup initiated", "addr", *addr, "catalog", *catalogPath)

	llmCfg := llm.LoadConfig()
	provider := llm.NewProvider(llmCfg)
	logger.Info("rfpc: llm provider ready", "provider", provider.Name())
	invoker := llm.NewInvoker(provider)

	prompts, err := prompt.NewLoader(*promptDir)
	if err != nil {
		logger.Error("rfpc: prompt loader failed", "error", err)
		fmt.Println("prompt loader error:", err)
		os.Exit(1)
	}

	cache, err := artifact.NewCache(*cacheDir)
	if err != nil {
		logger.Error("rfpc: artifact cache failed", "error", err)
		fmt.Println("artifact cache error:", err)
		os.Exit(1)
	}

	extractor, err := extract.New(invoker, prompts, cache, extract.Config{
		ContextLimit: *contextLimit,
		ChunkOverlap: *chunkOverlap,
	})
	if err != nil {
		logger.Error("rfpc: extractor construction failed", "error", err)
		fmt.Println("extractor error:", err)
		os.Exit(1)
	}

	catalog, err := store.Open(*catalogPath)
	if err != nil {
		logger.Error("rfpc: catalog open failed", "error", err)
		fmt.Println("catalog error:", err)
		os.Exit(1)
	}
	defer catalog.Close()

	retrieval := buildKnowledgeService(ctx, provider, logger)
	if retrieval != nil && strings.TrimSpace(*knowledgeDir) != "" {
		indexKnowledgeDir(ctx, retrieval, *knowledgeDir)
	}

	responder := respond.NewService(invoker, prompts, retrieverOrEmpty(retrieval))

	apiCfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*uploadDir); trimmed != "" {
		apiCfg.UploadRoot = trimmed
	}
	server, err := api.NewServer(catalog, extractor, responder, retrieval, &apiCfg)
	if err != nil {
		logger.Error("rfpc: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("rfpc: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("rfpc: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

// buildKnowledgeService wires the vector store, embedder, and splitter into
// the retrieval service. A missing or unreachable vector store is not fatal;
// generation degrades to answering without supporting passages.
func buildKnowledgeService(ctx context.Context, provider llm.Provider, logger *slog.Logger) *knowledge.Service {
	vecCfg, err := vector.LoadConfig()
	if err != nil {
		logger.Warn("rfpc: vector config invalid, retrieval disabled", "error", err)
		return nil
	}
	client, err := vector.New(ctx, vecCfg)
	if err != nil {
		logger.Warn("rfpc: vector store unavailable, retrieval disabled", "error", err)
		return nil
	}
	if client.Available() {
		logger.Info("rfpc: chromadb available", "collection", client.Collection())
	} else {
		logger.Warn("rfpc: chromadb unreachable", "collection", client.Collection())
	}
	split, err := splitter.New(knowledgeChunkTokens, knowledgeChunkOverlap)
	if err != nil {
		logger.Warn("rfpc: knowledge splitter failed, retrieval disabled", "error", err)
		return nil
	}
	embedder := knowledge.NewEmbedder(provider, 0)
	return knowledge.NewService(client, embedder, split)
}

// indexKnowledgeDir loads every supported document under dir into the
// knowledge base. Individual file failures are logged and skipped.
func indexKnowledgeDir(ctx context.Context, retrieval *knowledge.Service, dir string) {
	logger := common.Logger()
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("rfpc: knowledge directory unreadable", "dir", dir, "error", err)
		return
	}
	indexed := 0
	for _, entry := range entries {
		if entry.IsDir() || !docparse.Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("rfpc: knowledge file unreadable", "path", path, "error", err)
			continue
		}
		text, err := docparse.ExtractText(entry.Name(), data)
		if err != nil {
			logger.Warn("rfpc: knowledge file extraction failed", "path", path, "error", err)
			continue
		}
		chunks, err := retrieval.IndexDocument(ctx, uuid.NewString(), entry.Name(), path, text)
		if err != nil {
			logger.Warn("rfpc: knowledge indexing failed", "path", path, "error", err)
			continue
		}
		indexed++
		logger.Info("rfpc: knowledge document indexed", "name", entry.Name(), "chunks", chunks)
	}
	logger.Info("rfpc: knowledge directory indexed", "dir", dir, "documents", indexed)
}

// emptyRetriever answers retrieval requests with no passages when the
// knowledge base is not configured.
type emptyRetriever struct{}

func (emptyRetriever) FindRelevant(ctx context.Context, query string, k int) []knowledge.Chunk {
	return nil
}

func retrieverOrEmpty(retrieval *knowledge.Service) respond.Retriever {
	if retrieval == nil {
		return emptyRetriever{}
	}
	return retrieval
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}

func defaultCacheDir() string {
	return filepath.Join("data", "cache")
}
