package session

import (
	"sync"

	"docchat/internal/ai"
)

// DefaultHistoryLimit bounds how many past messages are replayed into each
// prompt. The full transcript is kept; the limit only applies to prompt
// assembly.
const DefaultHistoryLimit = 10

// History is an append-only conversation transcript.
type History struct {
	mu    sync.Mutex
	turns []ai.Message
}

// Append records one turn.
func (h *History) Append(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, ai.Message{Role: role, Content: content})
}

// Last returns a copy of the most recent messages, up to limit. A limit of
// zero or less uses DefaultHistoryLimit.
func (h *History) Last(limit int) []ai.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.turns) - limit
	if start < 0 {
		start = 0
	}

	out := make([]ai.Message, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}

// All returns a copy of the full transcript.
func (h *History) All() []ai.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ai.Message, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of recorded turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear discards the transcript. Nothing else about the session changes.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
