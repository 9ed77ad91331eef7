// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/extract"
	"github.com/bidsmith/rfpcopilot/internal/knowledge"
	"github.com/bidsmith/rfpcopilot/internal/respond"
	"github.com/bidsmith/rfpcopilot/internal/store"
)

// Server exposes the document pipeline over HTTP. Handlers are thin
// wrappers; all pipeline logic lives in the extract, knowledge, and respond
// packages.
type Server struct {
	router        chi.Router
	catalog       *store.Store
	extractor     *extract.Extractor
	responder     *respond.Service
	knowledge     *knowledge.Service
	uploadRoot    string
	maxUploadSize int64
}

// Config controls server behaviour outside the pipeline packages.
type Config struct {
	UploadRoot    string
	MaxUploadSize int64
}

// DefaultConfig returns the standard configuration used when no overrides
// are provided.
func DefaultConfig() Config {
	return Config{
		UploadRoot:    filepath.Join(os.TempDir(), "rfpcopilot_uploads"),
		MaxUploadSize: 100 << 20,
	}
}

// Merge overlays non-empty fields from the override onto the base
// configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.UploadRoot) != "" {
		result.UploadRoot = strings.TrimSpace(override.UploadRoot)
	}
	if override.MaxUploadSize > 0 {
		result.MaxUploadSize = override.MaxUploadSize
	}
	return result
}

func NewServer(catalog *store.Store, extractor *extract.Extractor, responder *respond.Service, retrieval *knowledge.Service, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if catalog == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor required")
	}
	if responder == nil {
		return nil, fmt.Errorf("responder required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	if err := os.MkdirAll(configuration.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	srv := &Server{
		router:        chi.NewRouter(),
		catalog:       catalog,
		extractor:     extractor,
		responder:     responder,
		knowledge:     retrieval,
		uploadRoot:    configuration.UploadRoot,
		maxUploadSize: configuration.MaxUploadSize,
	}
	srv.routes()
	logger.Info("api: server ready", "upload_root", configuration.UploadRoot)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/api/upload", s.handleUpload)
	s.router.Post("/api/process/{fileID}", s.handleProcess)
	s.router.Get("/api/documents", s.handleDocuments)
	s.router.Get("/api/questions/{fileID}", s.handleQuestions)
	s.router.Get("/api/metadata/{fileID}", s.handleMetadata)
	s.router.Get("/api/response-guide/{fileID}", s.handleResponseGuide)
	s.router.Post("/api/create-question", s.handleCreateQuestion)
	s.router.Post("/api/generate", s.handleGenerate)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/export", s.handleExport)
	s.router.Post("/api/create-final-response", s.handleFinalResponse)
	s.router.Post("/api/knowledge/upload", s.handleKnowledgeUpload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
