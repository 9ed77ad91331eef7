// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/llm/providers"
)

type Message = providers.Message

type ChatRequest = providers.ChatRequest

type Provider = providers.Provider

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Config selects and parameterizes the provider backend.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

// LoadConfig reads provider settings from the environment, filling defaults
// for anything unset.
func LoadConfig() Config {
	cfg := Config{
		APIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		ChatModel:  strings.TrimSpace(os.Getenv("RESPONSE_MODEL")),
		EmbedModel: strings.TrimSpace(os.Getenv("EMBEDDING_MODEL")),
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	return cfg
}

// NewProvider returns the OpenAI-backed provider when an API key is
// configured and the local stub otherwise.
func NewProvider(cfg Config) Provider {
	logger := common.Logger()
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", cfg.BaseURL)
			clientCfg.BaseURL = cfg.BaseURL
		}
		client := openai.NewClientWithConfig(clientCfg)
		logger.Info("llm: OpenAI provider selected", "chat_model", cfg.ChatModel)
		return providers.NewOpenAIProvider(client, cfg.ChatModel, cfg.EmbedModel)
	}
	logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
	return providers.NewLocalProvider()
}

// SystemUser builds the conventional system-plus-user conversation.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
