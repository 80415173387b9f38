package screenshot

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC)
}

func TestFilename(t *testing.T) {
	c := New("shots", "stipple")
	c.now = fixedClock

	want := filepath.Join("shots", "stipple_2024-05-06_07-08-09.010.png")
	if got := c.Filename(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	c = New("", "stipple")
	c.now = fixedClock
	if got := c.Filename(); got != "stipple_2024-05-06_07-08-09.010.png" {
		t.Errorf("unexpected filename without dir: %q", got)
	}
}

func TestSavePixelsFlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	c := New(dir, "frame")

	// Two rows, bottom row red and top row blue, in OpenGL order.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	path, err := c.SavePixels(pixels, 2, 2)
	if err != nil {
		t.Fatalf("SavePixels failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening screenshot: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding screenshot: %v", err)
	}

	top := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	bottom := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	if top != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("expected blue top row, got %v", top)
	}
	if bottom != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("expected red bottom row, got %v", bottom)
	}
}

func TestSavePixelsSizeMismatch(t *testing.T) {
	c := New(t.TempDir(), "frame")
	if _, err := c.SavePixels(make([]byte, 7), 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
