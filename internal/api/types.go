// File path: internal/api/types.go
package api

import (
	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/respond"
)

type uploadResponse struct {
	FileID    string `json:"file_id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Status    string `json:"status"`
}

type processResponse struct {
	FileID         string `json:"file_id"`
	DocumentTitle  string `json:"document_title"`
	QuestionsCount int    `json:"questions_count"`
	TextLength     int    `json:"text_length"`
}

type questionsResponse struct {
	Questions []artifact.Requirement `json:"questions"`
}

type metadataResponse struct {
	Metadata artifact.Metadata `json:"metadata"`
}

type guideResponse struct {
	ResponseGuide artifact.Guide `json:"response_guide"`
}

type createQuestionRequest struct {
	FileKey string `json:"file_key"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

type createQuestionResponse struct {
	Status   string               `json:"status"`
	Question artifact.Requirement `json:"question"`
}

type generateRequest struct {
	FileKey   string                 `json:"file_key"`
	Questions []artifact.Requirement `json:"questions"`
}

type generateResponse struct {
	Responses []*respond.Response `json:"responses"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type exportRequest struct {
	Responses []*respond.Response `json:"responses"`
}

type finalResponseRequest struct {
	FileKey string `json:"file_key"`
}

type finalResponseResult struct {
	Status  string `json:"status"`
	Content string `json:"content"`
}

type knowledgeUploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}
