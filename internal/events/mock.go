package events

import (
	"context"
	"sync"
)

// MockPublisher records published events for tests.
type MockPublisher struct {
	mu         sync.RWMutex
	published  []*TransactionEvent
	publishErr error
	closed     bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event *TransactionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

// Events returns a copy of everything published so far.
func (m *MockPublisher) Events() []*TransactionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*TransactionEvent, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockPublisher) EventsOfType(t EventType) []*TransactionEvent {
	var out []*TransactionEvent
	for _, e := range m.Events() {
		if e.Event == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockPublisher) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
