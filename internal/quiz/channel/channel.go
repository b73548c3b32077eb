package channel

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of one named event.
type Handler func(payload json.RawMessage)

// Channel is the bidirectional named-event interface the sync core consumes.
// Implementations dispatch inbound events one at a time on a single
// goroutine; after Off returns for an event name, its handler is never
// invoked again.
type Channel interface {
	On(event string, h Handler)
	Off(event string)
	Emit(event string, payload any) error
	Close() error
}

// Memory is a synchronous in-process Channel used by tests and local
// harnesses. Deliver invokes the registered handler on the caller's
// goroutine, holding the subscription lock for the duration so Off gives the
// same no-handler-after-return guarantee as the network adapters.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	emitted  []Emitted
	closed   bool
}

// Emitted records one outbound Emit call on a Memory channel.
type Emitted struct {
	Event   string
	Payload json.RawMessage
}

// NewMemory returns an empty in-memory channel.
func NewMemory() *Memory {
	return &Memory{handlers: make(map[string]Handler)}
}

func (m *Memory) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = h
}

func (m *Memory) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

func (m *Memory) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = append(m.emitted, Emitted{Event: event, Payload: data})
	return nil
}

// Deliver simulates an inbound event. It is a no-op for event names with no
// registered handler or after Close. The handler runs under the read lock,
// so it must not call On/Off/Emit/Close on this channel.
func (m *Memory) Deliver(event string, payload json.RawMessage) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.handlers[event]
	if h == nil || m.closed {
		return
	}
	h(payload)
}

// Sent returns every payload emitted so far.
func (m *Memory) Sent() []Emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Emitted, len(m.emitted))
	copy(out, m.emitted)
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
