package pipeline

import (
	"cmp"
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stipple/internal/sampler"
)

// DefaultParallelThreshold is the point count from which sorting is split across
// goroutines.
const DefaultParallelThreshold = 20000

// Sorter orders point buffers by projected depth. It keeps its scratch space between
// calls and must not be used from more than one goroutine at a time.
type Sorter struct {
	threshold int
	workers   int

	keys    []float32
	perm    []int32
	tmp     []int32
	scratch []sampler.SurfacePoint
}

// NewSorter creates a sorter. Buffers with at least threshold points are sorted with
// workers goroutines (0 uses GOMAXPROCS); threshold <= 0 selects the default.
func NewSorter(threshold, workers int) *Sorter {
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sorter{threshold: threshold, workers: workers}
}

// Sort reorders points in place by z/w of Projection × View × Model × position.
// With snap.SortDescending the keys are non-decreasing, so points run near to far;
// otherwise they are non-increasing and run far to near (painter's order). Points
// with equal keys keep their relative order, so the parallel and sequential paths
// produce the same result.
func (s *Sorter) Sort(ctx context.Context, points []sampler.SurfacePoint, snap Snapshot) error {
	n := len(points)
	if n < 2 {
		return nil
	}
	s.grow(n)

	workers := 1
	if n >= s.threshold {
		workers = s.workers
	}

	mvp := snap.MVP()
	err := s.chunks(ctx, n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.keys[i] = depth(mvp, points[i].Position)
			s.perm[i] = int32(i)
		}
	})
	if err != nil {
		return err
	}

	keys := s.keys
	compare := func(a, b int32) int { return cmp.Compare(keys[b], keys[a]) }
	if snap.SortDescending {
		compare = func(a, b int32) int { return cmp.Compare(keys[a], keys[b]) }
	}

	if err := s.sortPerm(ctx, n, workers, compare); err != nil {
		return err
	}

	for i, j := range s.perm[:n] {
		s.scratch[i] = points[j]
	}
	copy(points, s.scratch[:n])
	return nil
}

// Inversions counts adjacent pairs of points that are out of order for snap.
// A sorted buffer has none.
func Inversions(points []sampler.SurfacePoint, snap Snapshot) int {
	mvp := snap.MVP()
	n := 0
	for i := 1; i < len(points); i++ {
		prev := depth(mvp, points[i-1].Position)
		cur := depth(mvp, points[i].Position)
		if snap.SortDescending && prev > cur || !snap.SortDescending && prev < cur {
			n++
		}
	}
	return n
}

// SortSet sorts every buffer of set against the same snapshot.
func (s *Sorter) SortSet(ctx context.Context, set BufferSet, snap Snapshot) error {
	for _, b := range set {
		if err := s.Sort(ctx, b.Points, snap); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sorter) grow(n int) {
	if cap(s.keys) < n {
		s.keys = make([]float32, n)
		s.perm = make([]int32, n)
		s.tmp = make([]int32, n)
		s.scratch = make([]sampler.SurfacePoint, n)
	}
	s.keys = s.keys[:n]
	s.perm = s.perm[:n]
	s.tmp = s.tmp[:n]
	s.scratch = s.scratch[:n]
}

// chunks runs fn over [0, n) split into workers contiguous ranges.
func (s *Sorter) chunks(ctx context.Context, n, workers int, fn func(lo, hi int)) error {
	if workers <= 1 {
		fn(0, n)
		return ctx.Err()
	}
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := n*w/workers, n*(w+1)/workers
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// sortPerm stable-sorts perm by compare. In parallel mode each worker sorts one run
// and the runs are merged pairwise, one errgroup per round.
func (s *Sorter) sortPerm(ctx context.Context, n, workers int, compare func(a, b int32) int) error {
	if workers <= 1 {
		slices.SortStableFunc(s.perm, compare)
		return ctx.Err()
	}

	bounds := make([]int, workers+1)
	for w := range bounds {
		bounds[w] = n * w / workers
	}
	err := s.chunks(ctx, n, workers, func(lo, hi int) {
		slices.SortStableFunc(s.perm[lo:hi], compare)
	})
	if err != nil {
		return err
	}

	for len(bounds) > 2 {
		next := make([]int, 0, len(bounds)/2+2)
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i+1 < len(bounds); i += 2 {
			lo := bounds[i]
			next = append(next, lo)
			if i+2 >= len(bounds) {
				// Odd run out, carried over unchanged.
				hi := bounds[i+1]
				copy(s.tmp[lo:hi], s.perm[lo:hi])
				continue
			}
			mid, hi := bounds[i+1], bounds[i+2]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				merge(s.tmp[lo:hi], s.perm[lo:mid], s.perm[mid:hi], compare)
				return nil
			})
		}
		next = append(next, n)
		if err := g.Wait(); err != nil {
			return err
		}
		s.perm, s.tmp = s.tmp, s.perm
		bounds = next
	}
	return nil
}

// merge writes the stable merge of a and b into dst. On ties a wins.
func merge(dst, a, b []int32, compare func(x, y int32) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if compare(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
