package pipeline

import (
	"github.com/google/uuid"

	"github.com/Faultbox/stipple/internal/sampler"
)

// Buffer is the point list of one model, in current draw order.
type Buffer struct {
	ID     uuid.UUID
	Name   string
	Points []sampler.SurfacePoint
}

// BufferSet holds one Buffer per model.
type BufferSet []Buffer

// Clone returns a deep copy that shares no point storage with s.
func (s BufferSet) Clone() BufferSet {
	if s == nil {
		return nil
	}
	out := make(BufferSet, len(s))
	for i, b := range s {
		out[i] = Buffer{
			ID:     b.ID,
			Name:   b.Name,
			Points: append([]sampler.SurfacePoint(nil), b.Points...),
		}
	}
	return out
}

// TotalPoints returns the number of points across all buffers.
func (s BufferSet) TotalPoints() int {
	n := 0
	for _, b := range s {
		n += len(b.Points)
	}
	return n
}

// Find returns the buffer with the given ID.
func (s BufferSet) Find(id uuid.UUID) (Buffer, bool) {
	for _, b := range s {
		if b.ID == id {
			return b, true
		}
	}
	return Buffer{}, false
}
