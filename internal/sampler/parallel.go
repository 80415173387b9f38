package sampler

import (
	"context"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stipple/internal/mesh"
)

// minGroupsPerWorker keeps small meshes on a single goroutine.
const minGroupsPerWorker = 512

// SampleParallel is Sample split across workers goroutines (0 uses GOMAXPROCS).
// Triangles are cut into contiguous runs, each with its own PCG stream seeded from
// (seed, run index), and the runs are concatenated in order, so the result depends
// only on seed and the number of runs, and keeps triangle traversal order.
func SampleParallel(ctx context.Context, m *mesh.Mesh, density float32, brushes int, seed uint64, workers int) ([]SurfacePoint, Stats, error) {
	groups := groupCount(m)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	runs := min(workers, max(1, groups/minGroupsPerWorker))

	parts := make([][]SurfacePoint, runs)
	partStats := make([]Stats, runs)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < runs; i++ {
		lo := groups * i / runs
		hi := groups * (i + 1) / runs
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			parts[i], partStats[i] = sampleGroups(m, lo, hi, density, brushes, rng, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Density: density}
	total := 0
	for i := range parts {
		stats.merge(partStats[i])
		total += len(parts[i])
	}
	points := make([]SurfacePoint, 0, total)
	for _, p := range parts {
		points = append(points, p...)
	}

	logStats(m.Name, stats)
	return points, stats, nil
}
