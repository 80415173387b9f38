package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

// queue returns a poll function that yields events in order, then nil.
func queue(events ...sdl.Event) func() sdl.Event {
	return func() sdl.Event {
		if len(events) == 0 {
			return nil
		}
		e := events[0]
		events = events[1:]
		return e
	}
}

func TestUpdateTranslatesEvents(t *testing.T) {
	in := New()
	in.poll = queue(
		&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_R}},
		&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_UP}},
		&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
		&sdl.MouseMotionEvent{X: 3, Y: 4},
		&sdl.MouseWheelEvent{X: 1, Y: -2},
	)

	if in.Update() {
		t.Fatal("expected no quit")
	}

	events := in.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 events (mouse motion ignored), got %d", len(events))
	}
	if events[0].Type != EventKeyDown || events[0].Key != sdl.SCANCODE_R {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Type != EventKeyUp || events[1].Key != sdl.SCANCODE_UP {
		t.Errorf("unexpected second event %+v", events[1])
	}
	if events[2].Type != EventWindowResize || events[2].Width != 800 || events[2].Height != 600 {
		t.Errorf("unexpected resize event %+v", events[2])
	}
	if events[3].Type != EventMouseWheel || events[3].WheelX != 1 || events[3].WheelY != -2 {
		t.Errorf("unexpected wheel event %+v", events[3])
	}
}

func TestUpdateQuit(t *testing.T) {
	in := New()
	in.poll = queue(&sdl.QuitEvent{}, &sdl.KeyboardEvent{Type: sdl.KEYDOWN})

	if !in.Update() {
		t.Error("expected quit")
	}
}

func TestUpdateClearsPreviousFrame(t *testing.T) {
	in := New()
	in.poll = queue(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_R}})
	in.Update()
	in.poll = queue()
	in.Update()

	if len(in.Events()) != 0 {
		t.Errorf("expected no events, got %d", len(in.Events()))
	}
}

func TestIsKeyPressedIgnoresRepeat(t *testing.T) {
	in := New()
	in.poll = queue(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_R}})
	in.Update()

	if in.IsKeyPressed(sdl.SCANCODE_R) {
		t.Error("expected auto-repeat not to count as a press")
	}
}

func TestWheelSumsAndFlips(t *testing.T) {
	in := New()
	in.poll = queue(
		&sdl.MouseWheelEvent{X: 1, Y: 2},
		&sdl.MouseWheelEvent{X: 1, Y: 3, Direction: sdl.MOUSEWHEEL_FLIPPED},
	)
	in.Update()

	dx, dy, ok := in.Wheel()
	if !ok {
		t.Fatal("expected wheel motion")
	}
	if dx != 0 || dy != -1 {
		t.Errorf("expected (0, -1), got (%v, %v)", dx, dy)
	}

	in.poll = queue()
	in.Update()
	if _, _, ok := in.Wheel(); ok {
		t.Error("expected no wheel motion")
	}
}
