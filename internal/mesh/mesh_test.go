package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQuad(t *testing.T) {
	m := Quad(2)

	if err := m.Validate(); err != nil {
		t.Fatalf("quad should validate: %v", err)
	}
	if m.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.TriangleCount())
	}
	if got := m.SurfaceArea(); abs(got-4) > 1e-5 {
		t.Errorf("expected area 4, got %f", got)
	}

	n := m.Triangle(0).FaceNormal()
	if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected +Y face normal, got %v", n)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Mesh)
		wantErr error
	}{
		{"valid", func(*Mesh) {}, nil},
		{"missing normals", func(m *Mesh) { m.Normals = m.Normals[:2] }, ErrMissingAttribute},
		{"missing uvs", func(m *Mesh) { m.UVs = nil }, ErrMissingAttribute},
		{"index out of range", func(m *Mesh) { m.Indices[4] = 9 }, ErrIndexOutOfRange},
		{"trailing partial group", func(m *Mesh) { m.Indices = append(m.Indices, 1) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Quad(1)
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	m := Quad(4)
	b := m.Bounds()

	if b.Min != (mgl32.Vec3{-2, 0, -2}) {
		t.Errorf("expected min (-2,0,-2), got %v", b.Min)
	}
	if b.Max != (mgl32.Vec3{2, 0, 2}) {
		t.Errorf("expected max (2,0,2), got %v", b.Max)
	}
	if b.Center() != (mgl32.Vec3{}) {
		t.Errorf("expected centre at origin, got %v", b.Center())
	}
	if b.Size() != (mgl32.Vec3{4, 0, 4}) {
		t.Errorf("expected size (4,0,4), got %v", b.Size())
	}

	if (&Mesh{}).Bounds() != (Bounds{}) {
		t.Error("empty mesh should have zero bounds")
	}
}

func TestDegenerateTriangle(t *testing.T) {
	tri := Triangle{
		Positions: [3]mgl32.Vec3{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}},
	}
	if tri.Area() != 0 {
		t.Errorf("collinear triangle should have zero area, got %f", tri.Area())
	}
	if tri.FaceNormal() != (mgl32.Vec3{}) {
		t.Errorf("collinear triangle should have zero normal, got %v", tri.FaceNormal())
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
