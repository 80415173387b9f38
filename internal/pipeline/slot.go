package pipeline

import "sync"

// Slot is a single-value cell shared by one writer and one reader. A write replaces
// whatever is there; nothing is ever queued.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// TryPublish stores v unless the cell is currently held by a reader, in which case
// it returns false without waiting.
func (s *Slot[T]) TryPublish(v T) bool {
	if !s.mu.TryLock() {
		return false
	}
	s.value = v
	s.set = true
	s.mu.Unlock()
	return true
}

// Publish stores v, waiting for the lock if needed.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.set = true
	s.mu.Unlock()
}

// Load copies out the latest value. ok is false until something has been published.
// The value stays in the cell, so repeated loads return it again.
func (s *Slot[T]) Load() (v T, ok bool) {
	s.mu.Lock()
	v, ok = s.value, s.set
	s.mu.Unlock()
	return v, ok
}
