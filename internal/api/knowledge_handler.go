// File path: internal/api/knowledge_handler.go
package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/docparse"
	"github.com/bidsmith/rfpcopilot/internal/store"
)

// handleKnowledgeUpload indexes a supporting document into the knowledge
// base. Unlike RFP uploads, these documents become retrieval material for
// response generation.
func (s *Server) handleKnowledgeUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if s.knowledge == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("knowledge base unavailable"))
		return
	}
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
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported file type"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}
	text, err := docparse.ExtractText(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	docID := uuid.NewString()
	chunks, err := s.knowledge.IndexDocument(r.Context(), docID, header.Filename, header.Filename, text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("index document: %w", err))
		return
	}
	hash := sha256.Sum256(data)
	if err := s.catalog.SaveDocument(r.Context(), store.Document{
		ID:          docID,
		Name:        header.Filename,
		ContentHash: hex.EncodeToString(hash[:]),
		SizeBytes:   int64(len(data)),
		Status:      store.StatusIndexed,
	}); err != nil {
		logger.Warn("api: knowledge document not catalogued", "document_id", docID, "error", err)
	} else if err := s.catalog.UpdateDocumentStatus(r.Context(), docID, store.StatusIndexed, chunks); err != nil {
		logger.Warn("api: knowledge chunk count not recorded", "document_id", docID, "error", err)
	}
	logger.Info("api: knowledge document indexed", "document_id", docID, "name", header.Filename, "chunks", chunks)
	writeJSON(w, http.StatusOK, knowledgeUploadResponse{
		DocumentID: docID,
		Filename:   header.Filename,
		Chunks:     chunks,
	})
}
