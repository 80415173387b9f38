package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotEmpty(t *testing.T) {
	var s Slot[int]
	_, ok := s.Load()
	assert.False(t, ok)
}

func TestSlotKeepsLatest(t *testing.T) {
	var s Slot[int]
	for i := 1; i <= 100; i++ {
		require.True(t, s.TryPublish(i))
	}

	v, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, 100, v)

	v, ok = s.Load()
	require.True(t, ok)
	assert.Equal(t, 100, v, "loading does not consume the value")
}

func TestSlotTryPublishSkipsWhenHeld(t *testing.T) {
	var s Slot[int]
	s.Publish(1)

	s.mu.Lock()
	assert.False(t, s.TryPublish(2), "publish must not wait for a reader")
	s.mu.Unlock()

	v, _ := s.Load()
	assert.Equal(t, 1, v)
}

func TestMailboxDrainEmpty(t *testing.T) {
	m := NewMailbox[int]()
	_, ok := m.Drain()
	assert.False(t, ok)
}

func TestMailboxCoalesces(t *testing.T) {
	m := NewMailbox[int]()
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.Send(i))
	}

	v, ok := m.Drain()
	require.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, uint64(4), m.Dropped())

	_, ok = m.Drain()
	assert.False(t, ok, "a drained value is not delivered twice")

	require.NoError(t, m.Send(6))
	v, ok = m.Drain()
	require.True(t, ok)
	assert.Equal(t, 6, v)
	assert.Equal(t, uint64(4), m.Dropped())
}

func TestMailboxReady(t *testing.T) {
	m := NewMailbox[string]()

	go func() {
		_ = m.Send("a")
		_ = m.Send("b")
	}()

	select {
	case <-m.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready was never signalled")
	}

	require.Eventually(t, func() bool { return m.Dropped() == 1 }, time.Second, time.Millisecond)
	v, ok := m.Drain()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestMailboxDrainConsumesReady(t *testing.T) {
	m := NewMailbox[int]()
	require.NoError(t, m.Send(1))

	_, ok := m.Drain()
	require.True(t, ok)

	select {
	case <-m.Ready():
		t.Fatal("ready still signalled after the value was drained")
	default:
	}

	require.NoError(t, m.Send(2))
	select {
	case <-m.Ready():
	default:
		t.Fatal("ready not signalled for a new value")
	}
	v, ok := m.Drain()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMailboxClosed(t *testing.T) {
	m := NewMailbox[int]()
	require.NoError(t, m.Send(1))
	m.Close()

	assert.ErrorIs(t, m.Send(2), ErrClosed)

	v, ok := m.Drain()
	require.True(t, ok, "values sent before close can still be drained")
	assert.Equal(t, 1, v)
}

func TestRunningAverage(t *testing.T) {
	r := NewRunningAverage(3)
	assert.Zero(t, r.Average())

	r.Add(3 * time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, r.Average())

	r.Add(6 * time.Millisecond)
	r.Add(9 * time.Millisecond)
	assert.Equal(t, 6*time.Millisecond, r.Average())

	// Window is full; 3ms is evicted.
	r.Add(12 * time.Millisecond)
	assert.Equal(t, 9*time.Millisecond, r.Average())
}

func TestRunningAverageMinimumWindow(t *testing.T) {
	r := NewRunningAverage(0)
	r.Add(time.Second)
	r.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, r.Average())
}

func TestBufferSetClone(t *testing.T) {
	set := BufferSet{{Name: "a", Points: randomPoints(10, 1)}}
	clone := set.Clone()

	require.Equal(t, set, clone)
	clone[0].Points[0].Brush = 999
	assert.NotEqual(t, set[0].Points[0].Brush, clone[0].Points[0].Brush, "clone shares point storage")
	assert.Equal(t, 10, clone.TotalPoints())
	assert.Nil(t, BufferSet(nil).Clone())
}
