package window

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestWindowFlags(t *testing.T) {
	base := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)

	if got := windowFlags(Config{}); got != base {
		t.Errorf("expected 0x%x, got 0x%x", base, got)
	}

	got := windowFlags(Config{Fullscreen: true})
	if got&sdl.WINDOW_FULLSCREEN_DESKTOP == 0 {
		t.Error("expected desktop fullscreen flag")
	}
	if got&base != base {
		t.Errorf("expected base flags to be kept, got 0x%x", got)
	}
}

func TestSwapInterval(t *testing.T) {
	if swapInterval(true) != 1 {
		t.Error("expected vsync to swap every frame")
	}
	if swapInterval(false) != 0 {
		t.Error("expected immediate swaps without vsync")
	}
}
