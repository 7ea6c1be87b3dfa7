package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docchat/internal/ai"
	"docchat/internal/chunker"
	"docchat/internal/retriever"
	"docchat/internal/vectordb"
)

type fakeProvider struct {
	vector     []float32
	embedErr   error
	reply      string
	replyErr   error
	lastPrompt []ai.Message
}

func (f *fakeProvider) Embed(context.Context, string) ([]float32, error) {
	return f.vector, f.embedErr
}

func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(_ context.Context, messages []ai.Message) (string, error) {
	f.lastPrompt = messages
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.reply, nil
}

func newTestSession(t *testing.T, provider *fakeProvider, opts ...Option) *Session {
	t.Helper()

	idx := vectordb.NewIndex("fake-model")
	meta := chunker.Metadata{SectionTitle: "# Setup", SectionLevel: 1}
	if err := idx.Add("setup instructions", meta, []float32{1, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	return New(retriever.New(provider, idx), provider, opts...)
}

func TestChatAppendsTwoTurns(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0}, reply: "run the installer"}
	s := newTestSession(t, provider)

	answer, results, err := s.Chat(context.Background(), "how do I set up?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if answer != "run the installer" {
		t.Errorf("answer = %q", answer)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}

	turns := s.History().All()
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want 2", len(turns))
	}
	if turns[0].Role != ai.RoleUser || turns[0].Content != "how do I set up?" {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != ai.RoleAssistant || turns[1].Content != "run the installer" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestChatPromptShape(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0}, reply: "ok"}
	s := newTestSession(t, provider)

	if _, _, err := s.Chat(context.Background(), "first question"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if _, _, err := s.Chat(context.Background(), "second question"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	prompt := provider.lastPrompt
	// system + 2 history turns + current user question
	if len(prompt) != 4 {
		t.Fatalf("prompt has %d messages, want 4", len(prompt))
	}
	if prompt[0].Role != ai.RoleSystem {
		t.Errorf("first message role = %s, want system", prompt[0].Role)
	}
	if !strings.Contains(prompt[0].Content, "[Section - # Setup (Level 1)]") {
		t.Errorf("system message missing retrieved context:\n%s", prompt[0].Content)
	}
	if strings.Contains(prompt[0].Content, ContextPlaceholder) {
		t.Error("context placeholder not interpolated")
	}
	if prompt[1].Content != "first question" || prompt[2].Content != "ok" {
		t.Errorf("history turns = %+v", prompt[1:3])
	}
	last := prompt[len(prompt)-1]
	if last.Role != ai.RoleUser || last.Content != "second question" {
		t.Errorf("final message = %+v", last)
	}
}

func TestChatCompletionErrorStillRecorded(t *testing.T) {
	replyErr := ai.NewProviderError(ai.ErrTypeRateLimit, "throttled", "fake")
	provider := &fakeProvider{vector: []float32{1, 0}, replyErr: replyErr}
	s := newTestSession(t, provider)

	answer, _, err := s.Chat(context.Background(), "question")
	if !errors.Is(err, replyErr) {
		t.Errorf("expected completion error, got %v", err)
	}
	if !strings.Contains(answer, "Error:") {
		t.Errorf("answer should carry error text, got %q", answer)
	}

	turns := s.History().All()
	if len(turns) != 2 {
		t.Fatalf("history has %d turns after error, want 2", len(turns))
	}
	if turns[1].Role != ai.RoleAssistant || !strings.Contains(turns[1].Content, "Error:") {
		t.Errorf("assistant turn = %+v", turns[1])
	}
}

func TestChatRetrievalErrorStillRecorded(t *testing.T) {
	embedErr := ai.NewProviderError(ai.ErrTypeAuthentication, "bad key", "fake")
	provider := &fakeProvider{embedErr: embedErr}
	s := newTestSession(t, provider)

	_, _, err := s.Chat(context.Background(), "question")
	if !errors.Is(err, embedErr) {
		t.Errorf("expected retrieval error, got %v", err)
	}
	if got := s.History().Len(); got != 2 {
		t.Errorf("history has %d turns after retrieval error, want 2", got)
	}
}

func TestHistoryLimit(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0}, reply: "ok"}
	s := newTestSession(t, provider)

	// 8 exchanges = 16 turns; only the last 10 replay into the prompt.
	for i := 0; i < 8; i++ {
		if _, _, err := s.Chat(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
	}

	if got := s.History().Len(); got != 16 {
		t.Errorf("full transcript has %d turns, want 16", got)
	}

	prompt := provider.lastPrompt
	// system + 10 history turns + current question. The last chat saw 14
	// prior turns but replays only 10.
	if len(prompt) != 12 {
		t.Errorf("prompt has %d messages, want 12", len(prompt))
	}
}

func TestClearHistoryKeepsSession(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 0}, reply: "ok"}
	s := newTestSession(t, provider)

	if _, _, err := s.Chat(context.Background(), "question"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	id := s.ID()
	s.ClearHistory()

	if s.History().Len() != 0 {
		t.Error("history not cleared")
	}
	if s.ID() != id {
		t.Error("session ID changed on clear")
	}

	// The session still answers after a clear.
	if _, _, err := s.Chat(context.Background(), "another question"); err != nil {
		t.Fatalf("Chat after clear failed: %v", err)
	}
	if s.History().Len() != 2 {
		t.Errorf("history has %d turns, want 2", s.History().Len())
	}
}

func TestHistoryLastDefaults(t *testing.T) {
	h := &History{}
	for i := 0; i < 15; i++ {
		h.Append(ai.RoleUser, fmt.Sprintf("message %d", i))
	}

	last := h.Last(0)
	if len(last) != DefaultHistoryLimit {
		t.Fatalf("got %d messages, want %d", len(last), DefaultHistoryLimit)
	}
	if last[0].Content != "message 5" {
		t.Errorf("window starts at %q, want message 5", last[0].Content)
	}
}

func TestAssemblePromptNoHistory(t *testing.T) {
	msgs := AssemblePrompt("context: {context}", "THE CONTEXT", nil, "hello")
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "context: THE CONTEXT" {
		t.Errorf("system = %q", msgs[0].Content)
	}
	if msgs[1].Role != ai.RoleUser || msgs[1].Content != "hello" {
		t.Errorf("user = %+v", msgs[1])
	}
}
