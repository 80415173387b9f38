// Package mesh holds the indexed triangle meshes consumed by the surface sampler.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh validation errors.
var (
	ErrMissingAttribute = errors.New("vertex attribute arrays differ in length")
	ErrIndexOutOfRange  = errors.New("triangle index out of range")
)

// Mesh is an indexed triangle list with index-aligned vertex attributes.
// Indices is read three at a time; a trailing group shorter than three is
// malformed and skipped by consumers.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// Triangle is one resolved face of a mesh.
type Triangle struct {
	Positions [3]mgl32.Vec3
	Normals   [3]mgl32.Vec3
	UVs       [3]mgl32.Vec2
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge lengths of the box.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of complete index triples.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks that the attribute arrays line up and that every index is in range.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if len(m.Normals) != n || len(m.UVs) != n {
		return fmt.Errorf("%w: %d positions, %d normals, %d uvs",
			ErrMissingAttribute, n, len(m.Normals), len(m.UVs))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: indices[%d] = %d, vertex count %d", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// Triangle resolves the i-th complete index triple. It panics if i is out of range.
func (m *Mesh) Triangle(i int) Triangle {
	return m.resolve(m.Indices[i*3 : i*3+3])
}

func (m *Mesh) resolve(group []uint32) Triangle {
	var t Triangle
	for k, idx := range group {
		t.Positions[k] = m.Positions[idx]
		t.Normals[k] = m.Normals[idx]
		t.UVs[k] = m.UVs[idx]
	}
	return t
}

// Bounds computes the bounding box of all vertex positions.
func (m *Mesh) Bounds() Bounds {
	if len(m.Positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			b.Min[k] = min(b.Min[k], p[k])
			b.Max[k] = max(b.Max[k], p[k])
		}
	}
	return b
}

// Area returns the triangle's surface area.
func (t Triangle) Area() float32 {
	ab := t.Positions[1].Sub(t.Positions[0])
	ac := t.Positions[2].Sub(t.Positions[0])
	return ab.Cross(ac).Len() / 2
}

// FaceNormal returns the unit normal implied by the winding order, or the zero
// vector for a degenerate triangle.
func (t Triangle) FaceNormal() mgl32.Vec3 {
	ab := t.Positions[1].Sub(t.Positions[0])
	ac := t.Positions[2].Sub(t.Positions[0])
	n := ab.Cross(ac)
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{}
}

// SurfaceArea sums the area of every complete triangle.
func (m *Mesh) SurfaceArea() float32 {
	var total float32
	for i := 0; i < m.TriangleCount(); i++ {
		total += m.Triangle(i).Area()
	}
	return total
}

// Quad builds a two-triangle planar square of the given side length in the XZ
// plane, centred on the origin, facing +Y, with UVs spanning [0,1].
func Quad(side float32) *Mesh {
	h := side / 2
	up := mgl32.Vec3{0, 1, 0}
	return &Mesh{
		Name: "quad",
		Positions: []mgl32.Vec3{
			{-h, 0, h}, {h, 0, h}, {h, 0, -h}, {-h, 0, -h},
		},
		Normals: []mgl32.Vec3{up, up, up, up},
		UVs: []mgl32.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}
