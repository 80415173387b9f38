package pipeline

import "github.com/go-gl/mathgl/mgl32"

// Snapshot is the transform a sort pass works against. It is published whole and
// never modified afterwards.
type Snapshot struct {
	Model          mgl32.Mat4
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	// SortDescending orders points near to far; the default orders them far to near.
	SortDescending bool
}

// MVP returns Projection × View × Model.
func (s Snapshot) MVP() mgl32.Mat4 {
	return s.Projection.Mul4(s.View).Mul4(s.Model)
}

// depth returns the perspective-divided clip depth z/w of p under mvp.
func depth(mvp mgl32.Mat4, p mgl32.Vec3) float32 {
	v := mvp.Mul4x1(p.Vec4(1))
	return v.Z() / v.W()
}
