package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/stipple/internal/engine/input"
	"github.com/Faultbox/stipple/internal/pipeline"
)

type recorder struct {
	held    map[pipeline.Action]bool
	toggles int
	wheel   [2]float32
	wheelOn bool
	clears  int
}

func newRecorder() *recorder {
	return &recorder{held: make(map[pipeline.Action]bool)}
}

func (r *recorder) SetKey(a pipeline.Action, held bool) { r.held[a] = held }
func (r *recorder) ToggleSortDirection()                { r.toggles++ }
func (r *recorder) SetWheel(dx, dy float32) {
	r.wheel = [2]float32{dx, dy}
	r.wheelOn = true
}
func (r *recorder) ClearWheel() {
	r.wheelOn = false
	r.clears++
}

func keyDown(k sdl.Scancode) input.Event { return input.Event{Type: input.EventKeyDown, Key: k} }
func keyUp(k sdl.Scancode) input.Event   { return input.Event{Type: input.EventKeyUp, Key: k} }

func TestDispatchHeldKeys(t *testing.T) {
	tests := []struct {
		key  sdl.Scancode
		want pipeline.Action
	}{
		{sdl.SCANCODE_LEFT, pipeline.RotateModelLeft},
		{sdl.SCANCODE_RIGHT, pipeline.RotateModelRight},
		{sdl.SCANCODE_UP, pipeline.RotateModelUp},
		{sdl.SCANCODE_DOWN, pipeline.RotateModelDown},
		{sdl.SCANCODE_W, pipeline.ZoomIn},
		{sdl.SCANCODE_PAGEUP, pipeline.ZoomIn},
		{sdl.SCANCODE_S, pipeline.ZoomOut},
		{sdl.SCANCODE_PAGEDOWN, pipeline.ZoomOut},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			r, d := newRecorder(), newDispatcher()
			d.dispatch(r, []input.Event{keyDown(tt.key)}, 0, 0, false)
			assert.True(t, r.held[tt.want])

			d.dispatch(r, []input.Event{keyUp(tt.key)}, 0, 0, false)
			assert.False(t, r.held[tt.want])
		})
	}
}

func TestDispatchSharedActionStaysHeld(t *testing.T) {
	r, d := newRecorder(), newDispatcher()

	d.dispatch(r, []input.Event{keyDown(sdl.SCANCODE_W), keyDown(sdl.SCANCODE_PAGEUP)}, 0, 0, false)
	require.True(t, r.held[pipeline.ZoomIn])

	d.dispatch(r, []input.Event{keyUp(sdl.SCANCODE_PAGEUP)}, 0, 0, false)
	assert.True(t, r.held[pipeline.ZoomIn], "W is still down")

	d.dispatch(r, []input.Event{keyUp(sdl.SCANCODE_W)}, 0, 0, false)
	assert.False(t, r.held[pipeline.ZoomIn])
}

func TestDispatchIgnoresRepeat(t *testing.T) {
	r := newRecorder()
	repeat := keyDown(KeyToggleSort)
	repeat.Repeat = true

	newDispatcher().dispatch(r, []input.Event{keyDown(KeyToggleSort), repeat, repeat}, 0, 0, false)
	assert.Equal(t, 1, r.toggles)
}

func TestDispatchQuit(t *testing.T) {
	assert.True(t, newDispatcher().dispatch(newRecorder(), []input.Event{keyDown(KeyQuit)}, 0, 0, false).quit)
	assert.True(t, newDispatcher().dispatch(newRecorder(), []input.Event{{Type: input.EventQuit}}, 0, 0, false).quit)
	assert.False(t, newDispatcher().dispatch(newRecorder(), []input.Event{keyDown(sdl.SCANCODE_A)}, 0, 0, false).quit)
}

func TestDispatchScreenshot(t *testing.T) {
	r := newRecorder()
	f := newDispatcher().dispatch(r, []input.Event{keyDown(KeyScreenshot)}, 0, 0, false)
	assert.True(t, f.screenshot)
	assert.Empty(t, r.held)
}

func TestDispatchResize(t *testing.T) {
	f := newDispatcher().dispatch(newRecorder(), []input.Event{{Type: input.EventWindowResize, Width: 640, Height: 480}}, 0, 0, false)
	assert.True(t, f.resized)
	assert.False(t, f.quit)
}

func TestDispatchWheel(t *testing.T) {
	r := newRecorder()
	newDispatcher().dispatch(r, nil, 1, -2, true)
	assert.True(t, r.wheelOn)
	assert.Equal(t, [2]float32{1, -2}, r.wheel)

	newDispatcher().dispatch(r, nil, 0, 0, false)
	assert.False(t, r.wheelOn)
	assert.Equal(t, 1, r.clears)
}

func TestDispatchDrivesState(t *testing.T) {
	state := pipeline.NewState(testCamera(), identity(), true, pipeline.DefaultControls())
	before := state.Pose().SortDescending

	newDispatcher().dispatch(state, []input.Event{keyDown(KeyToggleSort)}, 0, 0, false)
	// The toggle is applied by the simulation tick, not by dispatch.
	assert.Equal(t, before, state.Pose().SortDescending)
}
