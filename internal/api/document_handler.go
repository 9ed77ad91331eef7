// File path: internal/api/document_handler.go
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/docparse"
	"github.com/bidsmith/rfpcopilot/internal/extract"
	"github.com/bidsmith/rfpcopilot/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file required: %w", err))
		return
	}
	defer file.Close()

	if !docparse.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(header.Filename)))
		return
	}

	fileID := uuid.NewString()
	dir := filepath.Join(s.uploadRoot, fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create upload dir: %w", err))
		return
	}
	dest := filepath.Join(dir, "document"+strings.ToLower(filepath.Ext(header.Filename)))
	out, err := os.Create(dest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create upload file: %w", err))
		return
	}
	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hash), io.LimitReader(file, s.maxUploadSize+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.RemoveAll(dir)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("store upload: %w", err))
		return
	}
	if size > s.maxUploadSize {
		os.RemoveAll(dir)
		writeError(w, http.StatusBadRequest, fmt.Errorf("file exceeds %d byte limit", s.maxUploadSize))
		return
	}

	doc := store.Document{
		ID:          fileID,
		Name:        header.Filename,
		SourcePath:  dest,
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
		SizeBytes:   size,
		Status:      store.StatusUploaded,
	}
	if err := s.catalog.SaveDocument(r.Context(), doc); err != nil {
		os.RemoveAll(dir)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: document uploaded", "file_id", fileID, "name", header.Filename, "bytes", size)
	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:    fileID,
		Filename:  header.Filename,
		SizeBytes: size,
		Status:    store.StatusUploaded,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	fileID := chi.URLParam(r, "fileID")

	doc, err := s.catalog.Document(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data, err := os.ReadFile(doc.SourcePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("read document: %w", err))
		return
	}
	text, err := docparse.ExtractText(doc.Name, data)
	if err != nil {
		_ = s.catalog.UpdateDocumentStatus(ctx, fileID, store.StatusFailed, 0)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	logger.Info("api: processing document", "file_id", fileID, "title", doc.Name, "text_length", len(text))

	questions, err := s.extractor.ExtractQuestions(ctx, text, doc.Name)
	if err != nil {
		_ = s.catalog.UpdateDocumentStatus(ctx, fileID, store.StatusFailed, 0)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("extract questions: %w", err))
		return
	}
	metadata, err := s.extractor.ExtractMetadata(ctx, text, doc.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("extract metadata: %w", err))
		return
	}
	guide, err := s.extractor.CreateResponseGuide(ctx, text, doc.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create response guide: %w", err))
		return
	}

	if err := s.saveArtifact(ctx, fileID, artifact.KindQuestions, questions); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.saveArtifact(ctx, fileID, artifact.KindMetadata, metadata); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.saveArtifact(ctx, fileID, artifact.KindResponseGuide, guide); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.saveMarkdown(ctx, fileID, artifact.KindQuestionsMarkdown, extract.QuestionsMarkdown(questions))
	s.saveMarkdown(ctx, fileID, artifact.KindMetadataMarkdown, extract.MetadataMarkdown(metadata))
	s.saveMarkdown(ctx, fileID, artifact.KindGuideMarkdown, extract.GuideMarkdown(guide))
	if err := s.catalog.UpdateDocumentStatus(ctx, fileID, store.StatusProcessed, 0); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("api: document processed", "file_id", fileID, "questions", len(questions))
	writeJSON(w, http.StatusOK, processResponse{
		FileID:         fileID,
		DocumentTitle:  doc.Name,
		QuestionsCount: len(questions),
		TextLength:     len(text),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.catalog.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]store.Document{"documents": docs})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if wantsMarkdown(r) {
		s.serveMarkdown(w, r, artifact.KindQuestionsMarkdown)
		return
	}
	var questions []artifact.Requirement
	if !s.loadArtifact(w, r, artifact.KindQuestions, &questions) {
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{Questions: questions})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if wantsMarkdown(r) {
		s.serveMarkdown(w, r, artifact.KindMetadataMarkdown)
		return
	}
	var metadata artifact.Metadata
	if !s.loadArtifact(w, r, artifact.KindMetadata, &metadata) {
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{Metadata: metadata})
}

func (s *Server) handleResponseGuide(w http.ResponseWriter, r *http.Request) {
	if wantsMarkdown(r) {
		s.serveMarkdown(w, r, artifact.KindGuideMarkdown)
		return
	}
	var guide artifact.Guide
	if !s.loadArtifact(w, r, artifact.KindResponseGuide, &guide) {
		return
	}
	writeJSON(w, http.StatusOK, guideResponse{ResponseGuide: guide})
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.FileKey) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file_key and text required"))
		return
	}

	question := artifact.Requirement{
		ID:              uuid.NewString(),
		Text:            req.Text,
		Section:         req.Section,
		ResponseSection: req.Section,
		Type:            "Custom",
		SearchQuery:     req.Text,
	}

	ctx := r.Context()
	var questions []artifact.Requirement
	row, err := s.catalog.Artifact(ctx, req.FileKey, string(artifact.KindQuestions))
	if err == nil {
		if err := json.Unmarshal([]byte(row.Content), &questions); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("decode stored questions: %w", err))
			return
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	questions = append(questions, question)
	if err := s.saveArtifact(ctx, req.FileKey, artifact.KindQuestions, questions); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, createQuestionResponse{Status: "success", Question: question})
}

func wantsMarkdown(r *http.Request) bool {
	return r.URL.Query().Get("format") == "markdown"
}

// saveMarkdown persists a rendered markdown artifact. Rendering is derived
// from the structured artifacts already saved, so a storage failure here is
// logged rather than failing the processing call.
func (s *Server) saveMarkdown(ctx context.Context, fileID string, kind artifact.Kind, content string) {
	if err := s.catalog.SaveArtifact(ctx, fileID, string(kind), content); err != nil {
		common.Logger().Warn("api: markdown artifact not saved", "file_id", fileID, "kind", kind, "error", err)
	}
}

func (s *Server) serveMarkdown(w http.ResponseWriter, r *http.Request, kind artifact.Kind) {
	fileID := chi.URLParam(r, "fileID")
	row, err := s.catalog.Artifact(r.Context(), fileID, string(kind))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(row.Content))
}

func (s *Server) saveArtifact(ctx context.Context, fileID string, kind artifact.Kind, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s artifact: %w", kind, err)
	}
	return s.catalog.SaveArtifact(ctx, fileID, string(kind), string(encoded))
}

func (s *Server) loadArtifact(w http.ResponseWriter, r *http.Request, kind artifact.Kind, target interface{}) bool {
	fileID := chi.URLParam(r, "fileID")
	row, err := s.catalog.Artifact(r.Context(), fileID, string(kind))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(row.Content), target); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("decode artifact: %w", err))
		return false
	}
	return true
}
