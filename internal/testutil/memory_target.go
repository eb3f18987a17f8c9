// Package testutil provides small in-memory test doubles used across
// logary's own test suite, grounded on the teacher's sinks/memory.go
// MemorySink (mutex-guarded slice, snapshot-copy reads).
package testutil

import (
	"sync"

	"github.com/willibrandon/logary/core"
)

// MemoryTarget is a core.TargetSink that records every message it
// receives, for assertions in tests.
type MemoryTarget struct {
	mu     sync.Mutex
	events []core.Message
	closed bool
}

func NewMemoryTarget() *MemoryTarget { return &MemoryTarget{} }

func (m *MemoryTarget) Emit(msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, msg)
	return nil
}

func (m *MemoryTarget) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a snapshot copy of every message received so far.
func (m *MemoryTarget) Events() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Message, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemoryTarget) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
