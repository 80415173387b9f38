// Package camera provides the orbit camera used by the viewer and the sort pipeline.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Polar guard band in degrees, measured between the camera position and world up.
// Orbits that would leave it are rejected so the view never flips at the poles.
const (
	MinPolarDeg = 5.0
	MaxPolarDeg = 175.0

	// guardSlackDeg absorbs float32 round-off so an orbit landing exactly on the
	// guard still counts as inside.
	guardSlackDeg = 1e-4
)

// WorldUp is the +Y axis.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Camera is a perspective camera with lazily built, cached view and projection
// matrices. Every mutator invalidates both caches before returning, so a read after
// a mutation is never stale.
//
// Camera does no locking of its own; View and Projection write the cache, so callers
// sharing a Camera across goroutines must serialise reads and writes with one lock.
type Camera struct {
	position  mgl32.Vec3
	direction mgl32.Vec3
	fov       float32 // Vertical field of view, radians
	aspect    float32
	near      float32
	far       float32

	view       mgl32.Mat4
	projection mgl32.Mat4
	valid      bool

	viewBuilds       int
	projectionBuilds int
}

// New creates a camera at position looking along direction. fov is in radians.
func New(position, direction mgl32.Vec3, fov, aspect, near, far float32) *Camera {
	return &Camera{
		position:  position,
		direction: direction,
		fov:       fov,
		aspect:    aspect,
		near:      near,
		far:       far,
	}
}

// Position returns the eye position.
func (c *Camera) Position() mgl32.Vec3 { return c.position }

// Direction returns the look direction. It is not necessarily unit length.
func (c *Camera) Direction() mgl32.Vec3 { return c.direction }

// FieldOfView returns the vertical field of view in radians.
func (c *Camera) FieldOfView() float32 { return c.fov }

// AspectRatio returns width / height.
func (c *Camera) AspectRatio() float32 { return c.aspect }

// ClipPlanes returns the near and far plane distances.
func (c *Camera) ClipPlanes() (near, far float32) { return c.near, c.far }

// SetPosition moves the eye.
func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.invalidate()
}

// SetDirection changes the look direction.
func (c *Camera) SetDirection(d mgl32.Vec3) {
	c.direction = d
	c.invalidate()
}

// SetFieldOfView sets the vertical field of view in radians.
func (c *Camera) SetFieldOfView(fov float32) {
	c.fov = fov
	c.invalidate()
}

// SetAspectRatio sets width / height, typically after a window resize.
func (c *Camera) SetAspectRatio(aspect float32) {
	c.aspect = aspect
	c.invalidate()
}

// SetClipPlanes sets the near and far plane distances.
func (c *Camera) SetClipPlanes(near, far float32) {
	c.near, c.far = near, far
	c.invalidate()
}

// Right returns the unit vector direction × up, or zero when looking straight
// along the up axis.
func (c *Camera) Right() mgl32.Vec3 {
	r := c.direction.Cross(WorldUp)
	if l := r.Len(); l > 0 {
		return r.Mul(1 / l)
	}
	return mgl32.Vec3{}
}

// RotateAroundUp orbits the eye about the origin by angle radians around the
// camera's right axis, keeping its distance from the origin, and then aims it back
// at the origin. Positive angles move the eye away from world up. It reports false
// and leaves the camera untouched when the result would leave the polar guard band.
func (c *Camera) RotateAroundUp(angle float32) bool {
	if angle == 0 {
		return false
	}
	right := c.Right()
	dist := c.position.Len()
	if dist == 0 || right == (mgl32.Vec3{}) {
		return false
	}

	target := PolarAngleDeg(c.position) + float64(mgl32.RadToDeg(angle))
	if angle < 0 && target < MinPolarDeg-guardSlackDeg {
		return false
	}
	if angle > 0 && target > MaxPolarDeg+guardSlackDeg {
		return false
	}

	unit := c.position.Mul(1 / dist)
	rotated := mgl32.HomogRotate3D(angle, right).Mul4x1(unit.Vec4(1)).Vec3()
	c.position = rotated.Mul(dist)
	c.direction = c.position.Normalize().Mul(-1)
	c.invalidate()
	return true
}

// Zoom moves the eye along the normalized look direction by amount.
func (c *Camera) Zoom(amount float32) {
	l := c.direction.Len()
	if amount == 0 || l == 0 {
		return
	}
	c.position = c.position.Add(c.direction.Mul(amount / l))
	c.invalidate()
}

// View returns the right-handed look-at matrix from the eye towards
// position + direction with world up.
func (c *Camera) View() mgl32.Mat4 {
	c.build()
	return c.view
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	c.build()
	return c.projection
}

// Builds reports how many times each matrix has been computed.
func (c *Camera) Builds() (view, projection int) {
	return c.viewBuilds, c.projectionBuilds
}

func (c *Camera) invalidate() {
	c.valid = false
}

// build refreshes both matrices together so they always describe the same parameters.
func (c *Camera) build() {
	if c.valid {
		return
	}
	c.view = mgl32.LookAtV(c.position, c.position.Add(c.direction), WorldUp)
	c.projection = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewBuilds++
	c.projectionBuilds++
	c.valid = true
}

// PolarAngleDeg returns the angle in degrees between p and world up.
func PolarAngleDeg(p mgl32.Vec3) float64 {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	l := gomath.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return 0
	}
	cos := gomath.Max(-1, gomath.Min(1, y/l))
	return gomath.Acos(cos) * 180 / gomath.Pi
}
