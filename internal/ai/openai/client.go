package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docchat/internal/ai"
)

// Client talks to the OpenAI API for embeddings and chat completions.
// Transient failures are retried with capped exponential backoff; terminal
// failures (bad key, rejected input) surface immediately.
type Client struct {
	config *Config
	api    *openai.Client
}

// New creates a client from config. The config is validated up front so a
// missing API key fails at startup, not on the first request.
func New(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}
	if config.OrganizationID != "" {
		apiConfig.OrgID = config.OrganizationID
	}
	apiConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

// Model returns the embedding model identifier.
func (c *Client) Model() string {
	return c.config.EmbeddingModel
}

// ChatModel returns the chat completion model identifier.
func (c *Client) ChatModel() string {
	return c.config.ChatModel
}

func (c *Client) Close() error {
	return nil
}

// Embed returns the embedding vector for text, retrying transient failures.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := c.withRetry(ctx, func() error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.config.EmbeddingModel),
		})
		if err != nil {
			return classifyError(err)
		}
		if len(resp.Data) == 0 {
			return ai.NewProviderError(ai.ErrTypeProvider, "embedding response contained no data", "openai")
		}
		embedding = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// Complete sends the message sequence and returns the assistant reply,
// retrying transient failures.
func (c *Client) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	if len(messages) == 0 {
		return "", ai.NewProviderError(ai.ErrTypeValidation, "at least one message is required", "openai")
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var content string

	err := c.withRetry(ctx, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.ChatModel,
			Messages:    chatMessages,
			Temperature: c.config.Temperature,
		})
		if err != nil {
			return classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return ai.NewProviderError(ai.ErrTypeProvider, "chat response contained no choices", "openai")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// withRetry runs fn up to MaxRetries times. Only retryable errors trigger
// another attempt; delays grow as 2^attempt seconds, capped at 30s.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoffDelay(attempt-1)); err != nil {
				return ai.NewProviderErrorWithCause(ai.ErrTypeTimeout, "retry interrupted", "openai", err)
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !ai.IsRetryableError(lastErr) {
			return lastErr
		}
	}

	return ai.NewProviderErrorWithCause(ai.ErrTypeProvider,
		fmt.Sprintf("request failed after %d attempts", c.config.MaxRetries), "openai", lastErr)
}

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
)

// backoffDelay returns the delay before retry number attempt+1. Growth is
// exponential but capped so a long retry chain cannot sleep for minutes.
func backoffDelay(attempt int) time.Duration {
	if attempt > 5 {
		return backoffCap
	}
	delay := backoffBase << uint(attempt)
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classifyError maps transport and API errors onto the provider error
// taxonomy so the retry loop can tell transient from terminal failures.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
		}
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "openai", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ai.NewProviderErrorWithCause(ai.ErrTypeTimeout, "request timed out", "openai", err)
	}
	if errors.Is(err, context.Canceled) {
		return ai.NewProviderErrorWithCause(ai.ErrTypeTimeout, "request canceled", "openai", err)
	}

	return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "openai", err)
}

func classifyStatus(status int, message string, cause error) error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	var err *ai.ProviderError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeAuthentication, message, "openai", cause)
	case status == http.StatusTooManyRequests:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeRateLimit, message, "openai", cause)
	case status == http.StatusBadRequest:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeValidation, message, "openai", cause)
	case status == http.StatusNotFound:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeModelUnavailable, message, "openai", cause)
	case status >= 500:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeProvider, message, "openai", cause)
	default:
		err = ai.NewProviderErrorWithCause(ai.ErrTypeProvider, message, "openai", cause)
		err.Retryable = false
	}
	err.StatusCode = status
	return err
}
