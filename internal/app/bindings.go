package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/stipple/internal/engine/input"
	"github.com/Faultbox/stipple/internal/pipeline"
)

// Keys with a fixed meaning outside the held-action table.
const (
	KeyQuit       = sdl.SCANCODE_ESCAPE
	KeyToggleSort = sdl.SCANCODE_R
	KeyScreenshot = sdl.SCANCODE_F12
)

// KeyBindings maps held keys to simulation actions.
var KeyBindings = map[sdl.Scancode]pipeline.Action{
	sdl.SCANCODE_LEFT:     pipeline.RotateModelLeft,
	sdl.SCANCODE_RIGHT:    pipeline.RotateModelRight,
	sdl.SCANCODE_UP:       pipeline.RotateModelUp,
	sdl.SCANCODE_DOWN:     pipeline.RotateModelDown,
	sdl.SCANCODE_W:        pipeline.ZoomIn,
	sdl.SCANCODE_PAGEUP:   pipeline.ZoomIn,
	sdl.SCANCODE_S:        pipeline.ZoomOut,
	sdl.SCANCODE_PAGEDOWN: pipeline.ZoomOut,
}

// controller is the part of pipeline.State the frame loop drives.
type controller interface {
	SetKey(a pipeline.Action, held bool)
	ToggleSortDirection()
	SetWheel(dx, dy float32)
	ClearWheel()
}

// frameInput is what one frame of events asks the viewer to do besides
// forwarding input to the simulation.
type frameInput struct {
	quit       bool
	resized    bool
	screenshot bool
}

// dispatcher turns input events into controller calls. Several keys may share an
// action, so it tracks held keys and releases an action only when none of its keys
// is still down.
type dispatcher struct {
	held map[sdl.Scancode]bool
}

func newDispatcher() *dispatcher {
	return &dispatcher{held: make(map[sdl.Scancode]bool)}
}

// dispatch forwards a frame of events to c. Wheel motion is summed by the
// input package, so wheel is passed separately; wheel=false clears it.
func (d *dispatcher) dispatch(c controller, events []input.Event, wheelX, wheelY float32, wheel bool) frameInput {
	var f frameInput
	for _, e := range events {
		switch e.Type {
		case input.EventQuit:
			f.quit = true
		case input.EventWindowResize:
			f.resized = true
		case input.EventKeyDown:
			if e.Repeat {
				continue
			}
			switch e.Key {
			case KeyQuit:
				f.quit = true
			case KeyToggleSort:
				c.ToggleSortDirection()
			case KeyScreenshot:
				f.screenshot = true
			default:
				if a, ok := KeyBindings[e.Key]; ok {
					d.held[e.Key] = true
					c.SetKey(a, true)
				}
			}
		case input.EventKeyUp:
			if a, ok := KeyBindings[e.Key]; ok {
				delete(d.held, e.Key)
				c.SetKey(a, d.actionHeld(a))
			}
		}
	}

	if wheel {
		c.SetWheel(wheelX, wheelY)
	} else {
		c.ClearWheel()
	}
	return f
}

// actionHeld reports whether any key bound to a is still down.
func (d *dispatcher) actionHeld(a pipeline.Action) bool {
	for k := range d.held {
		if KeyBindings[k] == a {
			return true
		}
	}
	return false
}
