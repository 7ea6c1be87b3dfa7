package ai

import "context"

// Message roles, matching the chat completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder produces vector embeddings for text. The embedding dimension is
// not known up front; callers discover it from the first returned vector.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the embedding model identifier.
	Model() string
}

// ChatCompleter produces an assistant reply for an ordered message sequence.
type ChatCompleter interface {
	// Complete sends messages and returns the assistant's reply content.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Provider bundles embedding and chat behind one client.
type Provider interface {
	Embedder
	ChatCompleter

	// Name returns the provider name (e.g., "openai")
	Name() string

	// Close cleans up provider resources
	Close() error
}
