// Package gamelog provides an in-memory implementation of the game message log.
package gamelog

import (
	"sync"

	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// Message is a single in-game log entry.
type Message struct {
	Text     string
	Category string
}

// MemoryLog buffers in-game messages for later display. It implements
// ports.GameLog and is safe for concurrent use.
type MemoryLog struct {
	mu       sync.Mutex
	messages []Message
	log      *logging.Logger
}

// New creates an empty in-memory game log.
func New(log *logging.Logger) *MemoryLog {
	if log == nil {
		log = logging.Default()
	}
	return &MemoryLog{log: log}
}

// Log appends a message. An empty category defaults to "info".
func (m *MemoryLog) Log(message, category string) {
	if category == "" {
		category = "info"
	}
	m.mu.Lock()
	m.messages = append(m.messages, Message{Text: message, Category: category})
	m.mu.Unlock()

	m.log.Debug("game message", "category", category, "message", message)
}

// Messages returns a copy of all buffered messages in order.
func (m *MemoryLog) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Drain returns all buffered messages and clears the buffer.
func (m *MemoryLog) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.messages
	m.messages = nil
	return out
}
