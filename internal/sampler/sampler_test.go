package sampler

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/stipple/internal/mesh"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x5eed))
}

// countingSource records how many values were drawn.
type countingSource struct {
	src   rand.Source
	draws int
}

func (c *countingSource) Uint64() uint64 {
	c.draws++
	return c.src.Uint64()
}

func singleTriangle() *mesh.Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return &mesh.Mesh{
		Name:      "triangle",
		Positions: []mgl32.Vec3{{0, 0, 0}, {4, 0, 0}, {0, 3, 0}},
		Normals:   []mgl32.Vec3{n, n, n},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

// barycentric recovers the weights of p for the triangle (a, b, c) by solving the
// 2x2 system in the triangle's plane.
func barycentric(p, a, b, c mgl32.Vec3) (wa, wb, wc float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := float64(v0.Dot(v0))
	d01 := float64(v0.Dot(v1))
	d11 := float64(v1.Dot(v1))
	d20 := float64(v2.Dot(v0))
	d21 := float64(v2.Dot(v1))
	denom := d00*d11 - d01*d01
	wb = (d11*d20 - d01*d21) / denom
	wc = (d00*d21 - d01*d20) / denom
	return 1 - wb - wc, wb, wc
}

func TestDensityConvergence(t *testing.T) {
	const (
		side    = 2
		density = 10.3
		calls   = 2000
	)
	quad := mesh.Quad(side)
	area := float64(quad.SurfaceArea())
	rng := newRand(1)

	total := 0
	for i := 0; i < calls; i++ {
		points, stats := Sample(quad, density, 4, rng)
		require.Equal(t, len(points), stats.Points)
		total += len(points)
	}

	mean := float64(total) / calls
	assert.InDelta(t, area*density, mean, 0.1, "mean point count should converge to area × density")
}

func TestPointsLieInsideTriangle(t *testing.T) {
	quad := mesh.Quad(3)
	points, _ := Sample(quad, 500, 4, newRand(2))
	require.NotEmpty(t, points)

	for i, p := range points {
		inside := false
		for tri := 0; tri < quad.TriangleCount(); tri++ {
			v := quad.Triangle(tri).Positions
			wa, wb, wc := barycentric(p.Position, v[0], v[1], v[2])
			if wa >= -1e-5 && wb >= -1e-5 && wc >= -1e-5 &&
				wa <= 1+1e-5 && wb <= 1+1e-5 && wc <= 1+1e-5 {
				assert.InDelta(t, 1, wa+wb+wc, 1e-5)
				inside = true
				break
			}
		}
		assert.True(t, inside, "point %d at %v is outside every triangle", i, p.Position)
	}
}

func TestUniformOverTriangle(t *testing.T) {
	const (
		want = 100000
		bins = 10
	)
	tri := singleTriangle()
	area := tri.SurfaceArea()
	points, _ := Sample(tri, want/area, 1, newRand(3))
	require.InDelta(t, want, len(points), 5)

	v := tri.Triangle(0).Positions
	var hist [bins][bins]int
	var sum [3]float64
	for _, p := range points {
		wa, wb, wc := barycentric(p.Position, v[0], v[1], v[2])
		sum[0] += wa
		sum[1] += wb
		sum[2] += wc
		i := min(int(wb*bins), bins-1)
		j := min(int(wc*bins), bins-1)
		hist[i][j]++
	}

	for k := range sum {
		assert.InDelta(t, 1.0/3, sum[k]/float64(len(points)), 0.01, "mean weight %d shows directional bias", k)
	}

	// Chi-squared over the grid cells that lie wholly inside the triangle. Each covers
	// 1/bins² of the unit square, i.e. 2/bins² of the triangle.
	expected := float64(len(points)) * 2 / (bins * bins)
	chi2 := 0.0
	cells := 0
	for i := 0; i < bins; i++ {
		for j := 0; i+j <= bins-2; j++ {
			d := float64(hist[i][j]) - expected
			chi2 += d * d / expected
			cells++
		}
	}
	assert.Equal(t, 45, cells)
	assert.Less(t, chi2, 100.0, "barycentric histogram is not uniform (chi² over %d cells)", cells)
}

func TestZeroDensity(t *testing.T) {
	for _, seed := range []uint64{0, 1, 99, 12345} {
		src := &countingSource{src: rand.NewPCG(seed, seed)}
		points, stats := Sample(mesh.Quad(10), 0, 4, rand.New(src))

		assert.Empty(t, points)
		assert.Zero(t, stats.Points)
		assert.Equal(t, 2, stats.Triangles)
		assert.Zero(t, src.draws, "zero density must not consume randomness")
	}
}

func TestSkipsMalformedGroups(t *testing.T) {
	quad := mesh.Quad(2)
	quad.Indices = append(quad.Indices, 0)

	points, stats := Sample(quad, 50, 2, newRand(4))

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Triangles)
	assert.NotEmpty(t, points)
}

func TestInterpolatedAttributes(t *testing.T) {
	const side = 2
	quad := mesh.Quad(side)
	points, _ := Sample(quad, 200, 3, newRand(5))
	require.NotEmpty(t, points)

	h := float32(side) / 2
	for _, p := range points {
		// The quad's UVs are a linear function of position.
		wantU := (p.Position.X() + h) / side
		wantV := (h - p.Position.Z()) / side
		assert.InDelta(t, wantU, p.UV.X(), 1e-4)
		assert.InDelta(t, wantV, p.UV.Y(), 1e-4)

		assert.True(t, p.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-4), "normal %v", p.Normal)
		assert.GreaterOrEqual(t, p.Brush, int32(0))
		assert.Less(t, p.Brush, int32(3))
	}
}

func TestTangentFrameFollowsUVs(t *testing.T) {
	const side = 2
	points, stats := Sample(mesh.Quad(side), 20, 1, newRand(6))
	require.NotEmpty(t, points)
	assert.Zero(t, stats.Degenerate)

	for _, p := range points {
		// dP/du points along +X and dP/dv along -Z, both scaled by the side length.
		assert.True(t, p.Tangent.ApproxEqualThreshold(mgl32.Vec3{side, 0, 0}, 1e-4), "tangent %v", p.Tangent)
		assert.True(t, p.Bitangent.ApproxEqualThreshold(mgl32.Vec3{0, 0, -side}, 1e-4), "bitangent %v", p.Bitangent)
	}
}

func TestDegenerateUVsFallBack(t *testing.T) {
	tests := []struct {
		name string
		uvs  []mgl32.Vec2
	}{
		{"collapsed", []mgl32.Vec2{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}},
		{"collinear", []mgl32.Vec2{{0, 0}, {0.5, 0.5}, {1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tri := singleTriangle()
			tri.UVs = tt.uvs

			points, stats := Sample(tri, 5, 1, newRand(7))
			require.NotEmpty(t, points)
			assert.Equal(t, 1, stats.Degenerate)

			n := tri.Triangle(0).FaceNormal()
			for _, p := range points {
				require.True(t, finite(p.Tangent) && finite(p.Bitangent))
				assert.InDelta(t, 1, p.Tangent.Len(), 1e-5)
				assert.InDelta(t, 1, p.Bitangent.Len(), 1e-5)
				assert.InDelta(t, 0, p.Tangent.Dot(n), 1e-5)
				assert.InDelta(t, 0, p.Bitangent.Dot(n), 1e-5)
				assert.InDelta(t, 0, p.Tangent.Dot(p.Bitangent), 1e-5)
			}
		})
	}
}

func TestEveryBrushIsUsed(t *testing.T) {
	const brushes = 5
	points, _ := Sample(mesh.Quad(1), 2000, brushes, newRand(8))

	seen := make(map[int32]int)
	for _, p := range points {
		seen[p.Brush]++
	}
	assert.Len(t, seen, brushes)
}

func TestStatsDiagnostics(t *testing.T) {
	s := Stats{Points: 110, Area: 1, Density: 100}
	assert.InDelta(t, 110, s.ActualDensity(), 1e-6)
	assert.InDelta(t, 10, s.ErrorPercent(), 1e-4)

	assert.Zero(t, Stats{}.ActualDensity())
	assert.Zero(t, Stats{Points: 3, Area: 1}.ErrorPercent())
}

func TestSampleParallelDeterministic(t *testing.T) {
	big := gridMesh(64)
	ctx := context.Background()

	a, statsA, err := SampleParallel(ctx, big, 50, 4, 42, 4)
	require.NoError(t, err)
	b, statsB, err := SampleParallel(ctx, big, 50, 4, 42, 4)
	require.NoError(t, err)

	assert.Equal(t, statsA, statsB)
	require.Equal(t, len(a), len(b))
	assert.Equal(t, a, b)
	assert.Equal(t, big.TriangleCount(), statsA.Triangles)
	assert.InDelta(t, float64(big.SurfaceArea()*50), float64(len(a)), float64(big.SurfaceArea()*50)*0.05)
}

func TestSampleParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := SampleParallel(ctx, gridMesh(4), 10, 1, 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

// gridMesh builds an n×n grid of unit quads in the XY plane.
func gridMesh(n int) *mesh.Mesh {
	m := &mesh.Mesh{Name: "grid"}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			m.Positions = append(m.Positions, mgl32.Vec3{float32(x), float32(y), 0})
			m.Normals = append(m.Normals, mgl32.Vec3{0, 0, 1})
			m.UVs = append(m.UVs, mgl32.Vec2{float32(x) / float32(n), float32(y) / float32(n)})
		}
	}
	row := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			i := y*row + x
			m.Indices = append(m.Indices, i, i+1, i+row+1, i, i+row+1, i+row)
		}
	}
	return m
}
