// File path: internal/respond/service.go
package respond

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/knowledge"
	"github.com/bidsmith/rfpcopilot/internal/llm"
	"github.com/bidsmith/rfpcopilot/internal/prompt"
)

const (
	answerTemperature = 0.2
	answerMaxTokens   = 2000
	chatTemperature   = 0.3
	chatMaxTokens     = 1500

	apologyText = "I apologize, but I was unable to generate a response to this question due to a technical issue. Please try again later."
	chatApology = "I apologize, but I was unable to generate a response due to a technical issue. Please try again later."
)

// Source records one knowledge passage that informed a response.
type Source struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Source   string                 `json:"source"`
	Score    float64                `json:"score"`
}

// Response is a generated answer together with everything that went into
// it: the exact query, the prompts, the knowledge context, and the scored
// sources. A failed generation carries the apology text and the error.
type Response struct {
	QuestionID       string   `json:"question_id"`
	QuestionText     string   `json:"question_text"`
	ResponseText     string   `json:"response_text"`
	Section          string   `json:"section,omitempty"`
	SearchQuery      string   `json:"search_query,omitempty"`
	SystemPrompt     string   `json:"system_prompt,omitempty"`
	UserPrompt       string   `json:"user_prompt,omitempty"`
	KnowledgeContext string   `json:"knowledge_context,omitempty"`
	Sources          []Source `json:"sources"`
	Error            string   `json:"error,omitempty"`
}

// ChatResponse is the transparency payload for a direct knowledge query.
type ChatResponse struct {
	Query            string   `json:"query"`
	ResponseText     string   `json:"response_text"`
	SystemPrompt     string   `json:"system_prompt,omitempty"`
	UserPrompt       string   `json:"user_prompt,omitempty"`
	KnowledgeContext string   `json:"knowledge_context,omitempty"`
	Sources          []Source `json:"sources"`
	Error            string   `json:"error,omitempty"`
}

// Document is an assembled markdown deliverable.
type Document struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Error   string `json:"error,omitempty"`
}

// Retriever supplies supporting knowledge passages for a query.
type Retriever interface {
	FindRelevant(ctx context.Context, query string, k int) []knowledge.Chunk
}

// Service answers extracted questions and ad-hoc queries against the
// knowledge base. Successful responses are cached in memory for the life of
// the process; failures are never cached.
type Service struct {
	invoker   *llm.Invoker
	prompts   *prompt.Loader
	retriever Retriever

	mu        sync.Mutex
	answers   map[string]*Response
	chatCache map[string]*ChatResponse
}

func NewService(invoker *llm.Invoker, prompts *prompt.Loader, retriever Retriever) *Service {
	return &Service{
		invoker:   invoker,
		prompts:   prompts,
		retriever: retriever,
		answers:   make(map[string]*Response),
		chatCache: make(map[string]*ChatResponse),
	}
}

// GenerateResponse answers one extracted question. When chunks is nil the
// service retrieves supporting knowledge itself. Failures return a response
// carrying the apology text and the error instead of propagating.
func (s *Service) GenerateResponse(ctx context.Context, question artifact.Requirement, chunks []knowledge.Chunk) *Response {
	logger := common.Logger()
	questionID := question.ID
	if questionID == "" {
		questionID = "unknown"
	}
	questionText := question.DisplayText()
	logger.Info("respond: generating response", "question", questionID, "text", truncate(questionText, 50))

	cacheKey := fmt.Sprintf("%s_%s", questionID, questionText)
	s.mu.Lock()
	if cached, ok := s.answers[cacheKey]; ok {
		s.mu.Unlock()
		logger.Info("respond: using cached response", "question", questionID)
		return cached
	}
	s.mu.Unlock()

	if chunks == nil {
		chunks = s.retriever.FindRelevant(ctx, questionText, 0)
		logger.Info("respond: retrieved knowledge", "question", questionID, "items", len(chunks))
	}
	knowledgeContext := formatKnowledgeContext(chunks)

	p, err := s.prompts.Get("response_generation", map[string]string{
		"question":          questionText,
		"knowledge_content": knowledgeContext,
	})
	if err != nil {
		logger.Error("respond: prompt unavailable", "error", err)
		return &Response{
			QuestionID:   questionID,
			QuestionText: questionText,
			ResponseText: apologyText,
			Sources:      []Source{},
			Error:        err.Error(),
		}
	}

	text, err := s.invoker.Chat(ctx, llm.ChatRequest{
		Messages:    llm.SystemUser(p.System, p.User),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		logger.Error("respond: generation failed", "question", questionID, "error", err)
		return &Response{
			QuestionID:   questionID,
			QuestionText: questionText,
			ResponseText: apologyText,
			Sources:      []Source{},
			Error:        err.Error(),
		}
	}

	response := &Response{
		QuestionID:       questionID,
		QuestionText:     questionText,
		ResponseText:     text,
		Section:          question.ResponseSection,
		SearchQuery:      questionText,
		SystemPrompt:     p.System,
		UserPrompt:       p.User,
		KnowledgeContext: knowledgeContext,
		Sources:          sourcesFromChunks(chunks),
	}
	s.mu.Lock()
	s.answers[cacheKey] = response
	s.mu.Unlock()
	logger.Info("respond: response generated", "question", questionID)
	return response
}

// GenerateChatResponse answers a direct query about the knowledge base.
func (s *Service) GenerateChatResponse(ctx context.Context, query string, chunks []knowledge.Chunk) *ChatResponse {
	logger := common.Logger()
	logger.Info("respond: generating chat response", "query", truncate(query, 50))

	cacheKey := "chat_" + query
	s.mu.Lock()
	if cached, ok := s.chatCache[cacheKey]; ok {
		s.mu.Unlock()
		logger.Info("respond: using cached chat response")
		return cached
	}
	s.mu.Unlock()

	if chunks == nil {
		chunks = s.retriever.FindRelevant(ctx, query, 0)
		logger.Info("respond: retrieved knowledge for chat", "items", len(chunks))
	}
	knowledgeContext := formatKnowledgeContext(chunks)

	p, err := s.prompts.Get("knowledge_chat", map[string]string{
		"question":  query,
		"knowledge": knowledgeContext,
	})
	if err != nil {
		logger.Error("respond: chat prompt unavailable", "error", err)
		return &ChatResponse{Query: query, ResponseText: chatApology, Sources: []Source{}, Error: err.Error()}
	}

	text, err := s.invoker.Chat(ctx, llm.ChatRequest{
		Messages:    llm.SystemUser(p.System, p.User),
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		logger.Error("respond: chat generation failed", "error", err)
		return &ChatResponse{Query: query, ResponseText: chatApology, Sources: []Source{}, Error: err.Error()}
	}

	response := &ChatResponse{
		Query:            query,
		ResponseText:     text,
		SystemPrompt:     p.System,
		UserPrompt:       p.User,
		KnowledgeContext: knowledgeContext,
		Sources:          sourcesFromChunks(chunks),
	}
	s.mu.Lock()
	s.chatCache[cacheKey] = response
	s.mu.Unlock()
	return response
}

// GenerateResponses answers each question in turn. Cancellation returns the
// responses generated so far.
func (s *Service) GenerateResponses(ctx context.Context, questions []artifact.Requirement) []*Response {
	logger := common.Logger()
	logger.Info("respond: generating batch responses", "count", len(questions))
	responses := make([]*Response, 0, len(questions))
	for i, question := range questions {
		if ctx.Err() != nil {
			logger.Warn("respond: batch cancelled, returning partial results", "completed", len(responses))
			return responses
		}
		logger.Info("respond: processing question", "index", i+1, "total", len(questions))
		responses = append(responses, s.GenerateResponse(ctx, question, nil))
	}
	logger.Info("respond: batch complete", "count", len(responses))
	return responses
}

// CreateDocument concatenates responses into a simple markdown document,
// ordered by question ID, with a source listing under each answer.
func (s *Service) CreateDocument(responses []*Response) Document {
	logger := common.Logger()
	logger.Info("respond: creating document", "responses", len(responses))

	ordered := make([]*Response, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].QuestionID < ordered[j].QuestionID
	})

	var b strings.Builder
	b.WriteString("# RFP Response\n\n")
	for _, response := range ordered {
		questionText := response.QuestionText
		if questionText == "" {
			questionText = "Unknown Question"
		}
		responseText := response.ResponseText
		if responseText == "" {
			responseText = "No response generated"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", questionText, responseText)
		if len(response.Sources) > 0 {
			b.WriteString("### Sources\n\n")
			for i, source := range response.Sources {
				name := source.Source
				if name == "" {
					name = fmt.Sprintf("Source %d", i+1)
				}
				fmt.Fprintf(&b, "- **%s** (Relevance: %.2f)\n", name, source.Score)
			}
			b.WriteString("\n")
		}
	}
	return Document{Content: b.String(), Format: "markdown"}
}

func formatKnowledgeContext(chunks []knowledge.Chunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = fmt.Sprintf("Source %d", i+1)
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", source, chunk.Text)
	}
	return b.String()
}

func sourcesFromChunks(chunks []knowledge.Chunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for _, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "Unknown"
		}
		sources = append(sources, Source{
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
			Source:   source,
			Score:    chunk.Score,
		})
	}
	return sources
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
