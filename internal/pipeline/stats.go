package pipeline

import "time"

// RunningAverage is the mean of the last N samples added.
type RunningAverage struct {
	values []time.Duration
	index  int
	count  int
	sum    time.Duration
}

// NewRunningAverage creates an average over a window of n samples (at least 1).
func NewRunningAverage(n int) *RunningAverage {
	return &RunningAverage{values: make([]time.Duration, max(n, 1))}
}

// Add pushes d into the window, evicting the oldest sample once it is full.
func (r *RunningAverage) Add(d time.Duration) {
	r.sum += d - r.values[r.index]
	r.values[r.index] = d
	r.index = (r.index + 1) % len(r.values)
	if r.count < len(r.values) {
		r.count++
	}
}

// Average returns the mean of the samples currently in the window, or 0 when empty.
func (r *RunningAverage) Average() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.sum / time.Duration(r.count)
}

// Stats are the pipeline's diagnostic counters. Durations are in microseconds.
type Stats struct {
	LastSortMicros   int64
	AvgSortMicros    int64
	SimTickMicros    int64
	SortTickMicros   int64
	Sorts            uint64
	Publishes        uint64
	SkippedPublishes uint64
	Dropped          uint64 // Sort results replaced before the consumer drained them
	Points           int
}
