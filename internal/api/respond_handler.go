// File path: internal/api/respond_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/respond"
	"github.com/bidsmith/rfpcopilot/internal/store"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("questions required"))
		return
	}
	logger.Info("api: generate requested", "file_key", req.FileKey, "questions", len(req.Questions))

	responses := s.responder.GenerateResponses(ctx, req.Questions)

	if strings.TrimSpace(req.FileKey) != "" {
		rows := make([]store.ResponseRow, 0, len(responses))
		for _, response := range responses {
			payload, err := json.Marshal(response)
			if err != nil {
				logger.Warn("api: encode response payload failed", "question", response.QuestionID, "error", err)
				payload = nil
			}
			rows = append(rows, store.ResponseRow{
				DocumentID:   req.FileKey,
				QuestionID:   response.QuestionID,
				QuestionText: response.QuestionText,
				ResponseText: response.ResponseText,
				Section:      response.Section,
				Payload:      string(payload),
			})
		}
		if err := s.catalog.SaveResponses(ctx, rows); err != nil {
			logger.Warn("api: persist responses failed", "file_key", req.FileKey, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, generateResponse{Responses: responses})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("message cannot be empty"))
		return
	}
	response := s.responder.GenerateChatResponse(r.Context(), req.Message, nil)
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	document := s.responder.CreateDocument(req.Responses)
	writeJSON(w, http.StatusOK, document)
}

func (s *Server) handleFinalResponse(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req finalResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.FileKey) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file_key required"))
		return
	}

	var guide artifact.Guide
	row, err := s.catalog.Artifact(ctx, req.FileKey, string(artifact.KindResponseGuide))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("response guide not found, process the document first"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := json.Unmarshal([]byte(row.Content), &guide); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("decode response guide: %w", err))
		return
	}

	metadata := artifact.Metadata{}
	if metaRow, err := s.catalog.Artifact(ctx, req.FileKey, string(artifact.KindMetadata)); err == nil {
		if err := json.Unmarshal([]byte(metaRow.Content), &metadata); err != nil {
			logger.Warn("api: decode metadata artifact failed", "file_key", req.FileKey, "error", err)
		}
	}

	rows, err := s.catalog.ResponsesForDocument(ctx, req.FileKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no responses found, generate question responses first"))
		return
	}
	responses := make([]*respond.Response, 0, len(rows))
	for _, stored := range rows {
		response := &respond.Response{
			QuestionID:   stored.QuestionID,
			QuestionText: stored.QuestionText,
			ResponseText: stored.ResponseText,
			Section:      stored.Section,
		}
		if stored.Payload != "" {
			var full respond.Response
			if err := json.Unmarshal([]byte(stored.Payload), &full); err == nil {
				response = &full
			}
		}
		responses = append(responses, response)
	}

	content := s.responder.GenerateFinalDocument(ctx, guide, responses, metadata, "")
	if err := s.saveArtifact(ctx, req.FileKey, artifact.KindFinalResponse, content); err != nil {
		logger.Warn("api: persist final response failed", "file_key", req.FileKey, "error", err)
	}

	writeJSON(w, http.StatusOK, finalResponseResult{Status: "success", Content: content})
}
