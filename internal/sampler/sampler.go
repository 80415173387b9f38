// Package sampler scatters oriented brush-stroke points over triangle meshes.
//
// Each triangle receives area × density points on average: the integer part is
// always placed and the fractional remainder decides one extra point with a single
// uniform draw. Points are uniform over the triangle, carry interpolated normals and
// UVs, a per-triangle tangent frame derived from the UV layout, and a random brush
// variant.
package sampler

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/stipple/internal/logger"
	"github.com/Faultbox/stipple/internal/mesh"
)

// degenerateUVSine is the smallest |sin| of the angle between a triangle's two UV
// edges for which the UV tangent system is solved directly.
const degenerateUVSine = 1e-6

// SurfacePoint is one brush stroke on the surface. The layout is fourteen float32
// values followed by an int32 so it can be uploaded to a vertex buffer as is.
type SurfacePoint struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3 // Interpolated, not renormalized
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
	UV        mgl32.Vec2
	Brush     int32
}

// Stats summarises one sampling pass.
type Stats struct {
	Triangles  int     // Triangles sampled
	Skipped    int     // Malformed index groups skipped
	Degenerate int     // Triangles whose tangent frame used the fallback basis
	Points     int     // Points emitted
	Area       float32 // Total area of sampled triangles
	Density    float32 // Requested points per unit area
}

// ActualDensity returns emitted points per unit area.
func (s Stats) ActualDensity() float32 {
	if s.Area == 0 {
		return 0
	}
	return float32(s.Points) / s.Area
}

// ErrorPercent returns the absolute deviation of the actual from the requested
// density, in percent.
func (s Stats) ErrorPercent() float32 {
	if s.Density == 0 {
		return 0
	}
	return math32.Abs(100 * (s.ActualDensity() - s.Density) / s.Density)
}

func (s *Stats) merge(o Stats) {
	s.Triangles += o.Triangles
	s.Skipped += o.Skipped
	s.Degenerate += o.Degenerate
	s.Points += o.Points
	s.Area += o.Area
}

// Sample places points over every triangle of m with the given density (points per
// unit area) and number of brush variants, drawing all randomness from rng. Output
// follows triangle order, then per-triangle sample order.
func Sample(m *mesh.Mesh, density float32, brushes int, rng *rand.Rand) ([]SurfacePoint, Stats) {
	points, stats := sampleGroups(m, 0, groupCount(m), density, brushes, rng, nil)
	logStats(m.Name, stats)
	return points, stats
}

// groupCount is the number of index groups, counting a trailing partial group.
func groupCount(m *mesh.Mesh) int {
	return (len(m.Indices) + 2) / 3
}

// sampleGroups samples index groups [lo, hi) and appends the points to out.
func sampleGroups(m *mesh.Mesh, lo, hi int, density float32, brushes int, rng *rand.Rand, out []SurfacePoint) ([]SurfacePoint, Stats) {
	stats := Stats{Density: density}
	brushes = max(brushes, 1)

	for g := lo; g < hi; g++ {
		start := g * 3
		end := min(start+3, len(m.Indices))
		group := m.Indices[start:end]
		if len(group) != 3 {
			logger.Warn("skipping non-triangular index group",
				zap.String("mesh", m.Name),
				zap.Int("vertices", len(group)),
				zap.Uint32s("indices", group),
			)
			stats.Skipped++
			continue
		}

		tri := m.Triangle(g)
		var degenerate bool
		out, degenerate = sampleTriangle(tri, density, brushes, rng, out, &stats)
		if degenerate {
			stats.Degenerate++
		}
		stats.Triangles++
	}

	return out, stats
}

func sampleTriangle(tri mesh.Triangle, density float32, brushes int, rng *rand.Rand, out []SurfacePoint, stats *Stats) ([]SurfacePoint, bool) {
	a, b, c := tri.Positions[0], tri.Positions[1], tri.Positions[2]
	ab := b.Sub(a)
	ac := c.Sub(a)

	area := ab.Cross(ac).Len() / 2
	stats.Area += area

	expected := area * density
	n := int(math32.Floor(expected))
	// A zero remainder can never win the draw, so skip it and keep zero density free of randomness.
	if rem := expected - float32(n); rem > 0 && rng.Float32() < rem {
		n++
	}
	if n == 0 {
		return out, false
	}

	tangent, bitangent, degenerate := tangentFrame(tri, ab, ac)

	for i := 0; i < n; i++ {
		r1, r2 := rng.Float32(), rng.Float32()
		if r1+r2 >= 1 {
			r1, r2 = 1-r1, 1-r2
		}
		p := a.Add(ab.Mul(r1)).Add(ac.Mul(r2))

		// Sub-triangle areas over the full area. The area opposite a vertex weights that vertex.
		wb := ac.Cross(p.Sub(a)).Len() / 2 / area
		wc := ab.Cross(p.Sub(b)).Len() / 2 / area
		wa := 1 - wb - wc

		out = append(out, SurfacePoint{
			Position:  p,
			Normal:    tri.Normals[0].Mul(wa).Add(tri.Normals[1].Mul(wb)).Add(tri.Normals[2].Mul(wc)),
			Tangent:   tangent,
			Bitangent: bitangent,
			UV:        tri.UVs[0].Mul(wa).Add(tri.UVs[1].Mul(wb)).Add(tri.UVs[2].Mul(wc)),
			Brush:     int32(rng.IntN(brushes)),
		})
	}
	stats.Points += n

	return out, degenerate
}

// tangentFrame solves [T; B] = M⁻¹ · [AB; AC] where M holds the UV deltas of the two
// edges. When the UV edges are (nearly) parallel or zero the system is singular, and
// an arbitrary orthonormal basis around the face normal is returned instead.
func tangentFrame(tri mesh.Triangle, ab, ac mgl32.Vec3) (tangent, bitangent mgl32.Vec3, degenerate bool) {
	duvAB := tri.UVs[1].Sub(tri.UVs[0])
	duvAC := tri.UVs[2].Sub(tri.UVs[0])

	det := duvAB.X()*duvAC.Y() - duvAB.Y()*duvAC.X()
	if math32.Abs(det) > degenerateUVSine*duvAB.Len()*duvAC.Len() {
		r := 1 / det
		tangent = ab.Mul(duvAC.Y()).Sub(ac.Mul(duvAB.Y())).Mul(r)
		bitangent = ac.Mul(duvAB.X()).Sub(ab.Mul(duvAC.X())).Mul(r)
		if finite(tangent) && finite(bitangent) {
			return tangent, bitangent, false
		}
	}

	tangent, bitangent = orthonormalBasis(tri.FaceNormal())
	return tangent, bitangent, true
}

// orthonormalBasis returns two unit vectors perpendicular to n and to each other.
func orthonormalBasis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if n.Len() == 0 {
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}
	}
	axis := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := axis.Sub(n.Mul(axis.Dot(n))).Normalize()
	return t, n.Cross(t)
}

func finite(v mgl32.Vec3) bool {
	for _, x := range v {
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func logStats(name string, s Stats) {
	logger.Info("sampled mesh",
		zap.String("mesh", name),
		zap.Int("triangles", s.Triangles),
		zap.Int("points", s.Points),
		zap.Float32("total_area", s.Area),
		zap.Float32("expected_density", s.Density),
		zap.Float32("actual_density", s.ActualDensity()),
		zap.Float32("error_pct", s.ErrorPercent()),
	)
	if s.Skipped > 0 || s.Degenerate > 0 {
		logger.Warn("mesh has malformed geometry",
			zap.String("mesh", name),
			zap.Int("skipped_groups", s.Skipped),
			zap.Int("degenerate_uv_triangles", s.Degenerate),
		)
	}
}
