// Package session manages conversational question answering over an
// indexed document set. Each session pairs a retriever with a chat model
// and keeps its own transcript.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docchat/internal/ai"
	"docchat/internal/retriever"
	"docchat/internal/vectordb"
)

// DefaultSystemTemplate is the persona prompt. The {context} placeholder is
// replaced with the retrieved document sections.
const DefaultSystemTemplate = `You are a helpful assistant that answers questions about a document collection.
Base your answers on the document context below. When the context does not
contain the answer, say so instead of guessing.

Document context:
{context}`

// ContextPlaceholder marks where retrieved context lands in the system
// template.
const ContextPlaceholder = "{context}"

// Session is one conversation over one database with one chat model.
type Session struct {
	id             string
	retriever      *retriever.Retriever
	completer      ai.ChatCompleter
	history        *History
	systemTemplate string
	topK           int
	historyLimit   int
}

// Option configures a session.
type Option func(*Session)

// WithSystemTemplate replaces the default persona template. The template
// should contain ContextPlaceholder.
func WithSystemTemplate(template string) Option {
	return func(s *Session) {
		s.systemTemplate = template
	}
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(topK int) Option {
	return func(s *Session) {
		s.topK = topK
	}
}

// WithHistoryLimit sets how many past messages are replayed per prompt.
func WithHistoryLimit(limit int) Option {
	return func(s *Session) {
		s.historyLimit = limit
	}
}

// New creates a session with a fresh transcript and a unique ID.
func New(r *retriever.Retriever, completer ai.ChatCompleter, opts ...Option) *Session {
	s := &Session{
		id:             uuid.NewString(),
		retriever:      r,
		completer:      completer,
		history:        &History{},
		systemTemplate: DefaultSystemTemplate,
		topK:           retriever.DefaultTopK,
		historyLimit:   DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// History returns the session transcript.
func (s *Session) History() *History {
	return s.history
}

// ClearHistory discards the transcript. The index, models and session ID
// are unaffected.
func (s *Session) ClearHistory() {
	s.history.Clear()
}

// Close releases session resources.
func (s *Session) Close() error {
	return nil
}

// AssemblePrompt builds the message sequence for one question: a system
// message with contextText interpolated into the template, the prior
// history in order, then the user's query.
func AssemblePrompt(systemTemplate, contextText string, history []ai.Message, query string) []ai.Message {
	system := strings.ReplaceAll(systemTemplate, ContextPlaceholder, contextText)

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: query})

	return messages
}

// Chat answers one question: retrieve context, assemble the prompt with
// recent history, and complete. Exactly two turns are appended to the
// transcript per call. When retrieval or completion fails, the assistant
// turn records the error text so the transcript stays complete, and the
// error is also returned.
func (s *Session) Chat(ctx context.Context, query string) (string, []vectordb.SearchResult, error) {
	results, contextText, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		answer := fmt.Sprintf("Error: failed to search documents: %v", err)
		s.appendExchange(query, answer)
		return answer, nil, err
	}

	prompt := AssemblePrompt(s.systemTemplate, contextText, s.history.Last(s.historyLimit), query)

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		answer = fmt.Sprintf("Error: failed to generate answer: %v", err)
		s.appendExchange(query, answer)
		return answer, results, err
	}

	s.appendExchange(query, answer)
	return answer, results, nil
}

func (s *Session) appendExchange(query, answer string) {
	s.history.Append(ai.RoleUser, query)
	s.history.Append(ai.RoleAssistant, answer)
}
