package mailer

import (
	"context"
	"sync"
)

// DummyMailer records messages in memory for tests.
type DummyMailer struct {
	mu       sync.Mutex
	messages []Message
}

func NewDummyMailer() *DummyMailer {
	return &DummyMailer{}
}

func (m *DummyMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// SentMessages returns a copy of everything sent so far.
func (m *DummyMailer) SentMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *DummyMailer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
