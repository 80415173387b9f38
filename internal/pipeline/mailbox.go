package pipeline

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Mailbox.Send once the receiving side has closed it.
var ErrClosed = errors.New("pipeline: mailbox closed")

// Mailbox hands values from producers to a single consumer, keeping only the most
// recent unreceived value. Sending over a pending value replaces it and counts it as
// dropped, so the consumer never has more than one message to catch up on.
type Mailbox[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	closed  bool
	dropped uint64
	ready   chan struct{}
}

// NewMailbox creates an empty open mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Send stores v as the latest value. It never blocks on the consumer.
func (m *Mailbox[T]) Send(v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.pending {
		m.dropped++
	}
	m.value = v
	m.pending = true

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

// Drain takes the latest value without blocking. ok is false when nothing arrived
// since the previous Drain. It also consumes the Ready signal.
func (m *Mailbox[T]) Drain() (v T, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ready:
	default:
	}
	if !m.pending {
		return v, false
	}
	v = m.value
	var zero T
	m.value = zero
	m.pending = false
	return v, true
}

// Ready is signalled after a Send. Consumers that want to wait for a value instead
// of polling can select on it and then call Drain.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Dropped returns how many values were replaced before the consumer saw them.
func (m *Mailbox[T]) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close marks the consumer as gone. Later sends fail with ErrClosed.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
