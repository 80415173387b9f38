// Package pipeline keeps sampled point buffers depth-sorted against a moving camera.
//
// Two loops run side by side. The simulation loop applies input to the shared State
// and offers a Snapshot through a Slot without ever waiting for it. The sort loop
// picks up the latest Snapshot, re-sorts every buffer against it and sends a copy of
// the whole set through a Mailbox, where the render side drains it to the latest.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stipple/internal/logger"
)

// Default tick periods. They differ so the loops do not run in lockstep.
const (
	DefaultSimPeriod  = 16 * time.Millisecond
	DefaultSortPeriod = 17 * time.Millisecond
)

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	SimPeriod         time.Duration
	SortPeriod        time.Duration
	ParallelThreshold int
	Workers           int
	AverageWindow     int
}

func (o Options) withDefaults() Options {
	if o.SimPeriod <= 0 {
		o.SimPeriod = DefaultSimPeriod
	}
	if o.SortPeriod <= 0 {
		o.SortPeriod = DefaultSortPeriod
	}
	if o.AverageWindow <= 0 {
		o.AverageWindow = 32
	}
	return o
}

// Pipeline owns the point buffers and the two loops that keep them sorted.
type Pipeline struct {
	opts   Options
	state  *State
	slot   Slot[Snapshot]
	out    *Mailbox[BufferSet]
	sorter *Sorter

	// Owned by the sort loop.
	buffers BufferSet

	replaceMu   sync.Mutex
	replacement BufferSet
	replacing   bool

	statsMu  sync.Mutex
	stats    Stats
	sortTime *RunningAverage
}

// New creates a pipeline sorting buffers against state and delivering results to out.
// The pipeline takes ownership of buffers.
func New(state *State, buffers BufferSet, out *Mailbox[BufferSet], opts Options) *Pipeline {
	opts = opts.withDefaults()
	p := &Pipeline{
		opts:     opts,
		state:    state,
		out:      out,
		sorter:   NewSorter(opts.ParallelThreshold, opts.Workers),
		buffers:  buffers,
		sortTime: NewRunningAverage(opts.AverageWindow),
	}
	p.stats.Points = buffers.TotalPoints()
	return p
}

// Run starts both loops and blocks until ctx is cancelled or the consumer closes
// the mailbox. Both count as a normal shutdown and return nil.
func (p *Pipeline) Run(ctx context.Context) error {
	log := logger.Named("pipeline")
	log.Info("started",
		zap.Duration("sim_period", p.opts.SimPeriod),
		zap.Duration("sort_period", p.opts.SortPeriod),
		zap.Int("buffers", len(p.buffers)),
		zap.Int("points", p.buffers.TotalPoints()),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.simLoop(ctx) })
	g.Go(func() error { return p.sortLoop(ctx) })

	err := g.Wait()
	switch {
	case errors.Is(err, ErrClosed):
		log.Info("stopped", zap.String("reason", "consumer closed"))
		return nil
	case err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		log.Info("stopped", zap.String("reason", "context done"))
		return nil
	default:
		log.Error("failed", zap.Error(err))
		return err
	}
}

// ReplaceBuffers swaps in a new buffer set at the start of the next sort tick, for
// example after re-sampling at a new density.
func (p *Pipeline) ReplaceBuffers(set BufferSet) {
	p.replaceMu.Lock()
	p.replacement = set
	p.replacing = true
	p.replaceMu.Unlock()
}

// Stats returns a copy of the diagnostic counters.
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	s := p.stats
	p.statsMu.Unlock()
	s.Dropped = p.out.Dropped()
	return s
}

func (p *Pipeline) simLoop(ctx context.Context) error {
	for {
		start := time.Now()
		p.simulate()
		elapsed := time.Since(start)

		p.statsMu.Lock()
		p.stats.SimTickMicros = elapsed.Microseconds()
		p.statsMu.Unlock()

		if err := sleep(ctx, p.opts.SimPeriod-elapsed); err != nil {
			return nil
		}
	}
}

// simulate runs one simulation tick: apply input and, if anything changed, offer a
// fresh Snapshot. Unlike clearing the changed flag before the attempt, it is only
// cleared once a publish lands, so a publish skipped on a busy slot is retried on the
// next tick instead of being lost.
func (p *Pipeline) simulate() {
	s := p.state
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyInput()
	if !s.changed {
		return
	}

	if p.slot.TryPublish(s.snapshot()) {
		s.changed = false
		p.statsMu.Lock()
		p.stats.Publishes++
		p.statsMu.Unlock()
		return
	}

	logger.Debug("snapshot publish skipped, slot busy")
	p.statsMu.Lock()
	p.stats.SkippedPublishes++
	p.statsMu.Unlock()
}

func (p *Pipeline) sortLoop(ctx context.Context) error {
	for {
		start := time.Now()
		if _, err := p.sortTick(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		elapsed := time.Since(start)

		p.statsMu.Lock()
		p.stats.SortTickMicros = elapsed.Microseconds()
		p.statsMu.Unlock()

		if err := sleep(ctx, p.opts.SortPeriod-elapsed); err != nil {
			return nil
		}
	}
}

// sortTick runs one sort pass against the latest Snapshot and sends the result. It
// reports false when nothing has been published yet.
func (p *Pipeline) sortTick(ctx context.Context) (bool, error) {
	p.replaceMu.Lock()
	if p.replacing {
		p.buffers = p.replacement
		p.replacement = nil
		p.replacing = false
		logger.Info("point buffers replaced",
			zap.Int("buffers", len(p.buffers)),
			zap.Int("points", p.buffers.TotalPoints()),
		)
	}
	p.replaceMu.Unlock()

	snap, ok := p.slot.Load()
	if !ok {
		return false, nil
	}

	start := time.Now()
	if err := p.sorter.SortSet(ctx, p.buffers, snap); err != nil {
		return false, err
	}
	took := time.Since(start)

	p.statsMu.Lock()
	p.sortTime.Add(took)
	p.stats.LastSortMicros = took.Microseconds()
	p.stats.AvgSortMicros = p.sortTime.Average().Microseconds()
	p.stats.Sorts++
	p.stats.Points = p.buffers.TotalPoints()
	p.statsMu.Unlock()

	if err := p.out.Send(p.buffers.Clone()); err != nil {
		return true, err
	}
	return true, nil
}

// sleep waits for d (nothing when d <= 0) or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
