package openai

import (
	"fmt"
	"net/url"
	"time"

	"docchat/internal/ai"
)

const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultTemperature    = 0.7
	DefaultMaxRetries     = 3
	DefaultTimeout        = 60 * time.Second
)

type Config struct {
	APIKey         string        `json:"api_key"`
	BaseURL        string        `json:"base_url,omitempty"`
	OrganizationID string        `json:"organization_id,omitempty"`
	EmbeddingModel string        `json:"embedding_model"`
	ChatModel      string        `json:"chat_model"`
	Temperature    float32       `json:"temperature"`
	MaxRetries     int           `json:"max_retries"`
	Timeout        time.Duration `json:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		EmbeddingModel: DefaultEmbeddingModel,
		ChatModel:      DefaultChatModel,
		Temperature:    DefaultTemperature,
		MaxRetries:     DefaultMaxRetries,
		Timeout:        DefaultTimeout,
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "API key is required", "openai")
	}

	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return ai.NewProviderError(ai.ErrTypeConfiguration,
				fmt.Sprintf("invalid base URL: %v", err), "openai")
		}
	}

	if c.EmbeddingModel == "" {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "embedding model is required", "openai")
	}

	if c.ChatModel == "" {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "chat model is required", "openai")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "temperature must be between 0 and 2", "openai")
	}

	if c.MaxRetries <= 0 {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "max retries must be positive", "openai")
	}

	if c.Timeout <= 0 {
		return ai.NewProviderError(ai.ErrTypeConfiguration, "timeout must be positive", "openai")
	}

	return nil
}
