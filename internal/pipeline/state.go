package pipeline

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stipple/internal/engine/camera"
)

// Action is a held-key input.
type Action int

const (
	RotateModelLeft Action = iota
	RotateModelRight
	RotateModelUp
	RotateModelDown
	ZoomIn
	ZoomOut
	actionCount
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case RotateModelLeft:
		return "rotate-left"
	case RotateModelRight:
		return "rotate-right"
	case RotateModelUp:
		return "rotate-up"
	case RotateModelDown:
		return "rotate-down"
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	default:
		return "unknown"
	}
}

// Controls scales raw input into camera and model motion.
type Controls struct {
	OrbitSensitivity float32 // Degrees per wheel unit
	ZoomStep         float32 // World units per tick while a zoom key is held
	ModelRotateStep  float32 // Degrees per tick while a rotate key is held
}

// DefaultControls returns the stock input scaling.
func DefaultControls() Controls {
	return Controls{OrbitSensitivity: 0.3, ZoomStep: 0.01, ModelRotateStep: 1}
}

// Pose is a consistent copy of everything the renderer needs for one frame.
type Pose struct {
	Model          mgl32.Mat4
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	Eye            mgl32.Vec3
	SortDescending bool
}

// State is the camera, model transform and pending input shared by the input
// thread, the simulation loop and the renderer. One mutex guards all of it, so every
// read sees a whole pose.
type State struct {
	mu sync.Mutex

	camera         *camera.Camera
	model          mgl32.Mat4
	sortDescending bool
	controls       Controls

	wheel      mgl32.Vec2
	wheelHeld  bool
	keys       [actionCount]bool
	toggleSort bool

	changed bool
}

// NewState wraps cam with an initial model matrix. The first simulation tick always
// publishes.
func NewState(cam *camera.Camera, model mgl32.Mat4, sortDescending bool, controls Controls) *State {
	return &State{
		camera:         cam,
		model:          model,
		sortDescending: sortDescending,
		controls:       controls,
		changed:        true,
	}
}

// SetWheel records the current wheel delta. It is applied on every simulation tick
// until ClearWheel, like a scroll gesture that is still in progress.
func (s *State) SetWheel(dx, dy float32) {
	s.mu.Lock()
	s.wheel = mgl32.Vec2{dx, dy}
	s.wheelHeld = true
	s.mu.Unlock()
}

// ClearWheel ends the current scroll gesture.
func (s *State) ClearWheel() {
	s.mu.Lock()
	s.wheel = mgl32.Vec2{}
	s.wheelHeld = false
	s.mu.Unlock()
}

// SetKey records whether the key bound to a is held.
func (s *State) SetKey(a Action, held bool) {
	if a < 0 || a >= actionCount {
		return
	}
	s.mu.Lock()
	s.keys[a] = held
	s.mu.Unlock()
}

// ToggleSortDirection flips the sort direction on the next tick. Repeated calls
// before that tick collapse into one flip.
func (s *State) ToggleSortDirection() {
	s.mu.Lock()
	s.toggleSort = true
	s.mu.Unlock()
}

// SetAspectRatio updates the camera after a window resize.
func (s *State) SetAspectRatio(aspect float32) {
	s.mu.Lock()
	s.camera.SetAspectRatio(aspect)
	s.changed = true
	s.mu.Unlock()
}

// SetControls replaces the input scaling.
func (s *State) SetControls(c Controls) {
	s.mu.Lock()
	s.controls = c
	s.mu.Unlock()
}

// Pose returns the current transforms under one lock.
func (s *State) Pose() Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Pose{
		Model:          s.model,
		View:           s.camera.View(),
		Projection:     s.camera.Projection(),
		Eye:            s.camera.Position(),
		SortDescending: s.sortDescending,
	}
}

// applyInput consumes one tick of input. Callers hold s.mu.
func (s *State) applyInput() {
	c := s.controls

	if s.wheelHeld {
		if s.wheel.X() != 0 {
			s.rotateModel(mgl32.HomogRotate3DY(mgl32.DegToRad(c.OrbitSensitivity * s.wheel.X())))
		}
		if s.wheel.Y() != 0 && s.camera.RotateAroundUp(mgl32.DegToRad(-c.OrbitSensitivity*s.wheel.Y())) {
			s.changed = true
		}
	}

	step := mgl32.DegToRad(c.ModelRotateStep)
	if s.keys[RotateModelLeft] {
		s.rotateModel(mgl32.HomogRotate3DY(-step))
	}
	if s.keys[RotateModelRight] {
		s.rotateModel(mgl32.HomogRotate3DY(step))
	}
	if s.keys[RotateModelUp] {
		s.rotateModel(mgl32.HomogRotate3DX(-step))
	}
	if s.keys[RotateModelDown] {
		s.rotateModel(mgl32.HomogRotate3DX(step))
	}

	if s.keys[ZoomIn] && !s.keys[ZoomOut] {
		s.camera.Zoom(c.ZoomStep)
		s.changed = true
	}
	if s.keys[ZoomOut] && !s.keys[ZoomIn] {
		s.camera.Zoom(-c.ZoomStep)
		s.changed = true
	}

	if s.toggleSort {
		s.toggleSort = false
		s.sortDescending = !s.sortDescending
		s.changed = true
	}
}

// rotateModel applies r in world space on top of the current model matrix.
func (s *State) rotateModel(r mgl32.Mat4) {
	s.model = r.Mul4(s.model)
	s.changed = true
}

// snapshot builds a Snapshot from the current pose. Callers hold s.mu.
func (s *State) snapshot() Snapshot {
	return Snapshot{
		Model:          s.model,
		View:           s.camera.View(),
		Projection:     s.camera.Projection(),
		SortDescending: s.sortDescending,
	}
}
