package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.BrushSize <= 0 {
		bad("window.brush_size must be > 0, got %v", c.Window.BrushSize)
	}
	if c.Window.Samples < 0 {
		bad("window.msaa_samples must be >= 0, got %d", c.Window.Samples)
	}
	if c.Scene.StrokeDensity < 0 {
		bad("scene.stroke_density must be >= 0, got %v", c.Scene.StrokeDensity)
	}
	if c.Scene.Brushes < 1 {
		bad("scene.brushes must be >= 1, got %d", c.Scene.Brushes)
	}
	if c.Scene.Transform.Scale == 0 {
		bad("scene.transform.scale must be non-zero")
	}
	if c.Camera.FOVDeg <= 0 || c.Camera.FOVDeg >= 180 {
		bad("camera.fov_deg must be in (0, 180), got %v", c.Camera.FOVDeg)
	}
	if c.Camera.Near <= 0 {
		bad("camera.near must be > 0, got %v", c.Camera.Near)
	}
	if c.Camera.Far <= c.Camera.Near {
		bad("camera.far (%v) must be greater than camera.near (%v)", c.Camera.Far, c.Camera.Near)
	}
	if c.Camera.Direction == [3]float32{} {
		bad("camera.direction must be non-zero")
	}
	if c.Light.ElevationDeg < -90 || c.Light.ElevationDeg > 90 {
		bad("light.elevation_deg must be in [-90, 90], got %v", c.Light.ElevationDeg)
	}
	if c.Pipeline.SimPeriod <= 0 {
		bad("pipeline.sim_period must be positive, got %v", c.Pipeline.SimPeriod.Std())
	}
	if c.Pipeline.SortPeriod <= 0 {
		bad("pipeline.sort_period must be positive, got %v", c.Pipeline.SortPeriod.Std())
	}
	if c.Pipeline.Workers < 0 {
		bad("pipeline.workers must be >= 0, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.AverageWindow < 1 {
		bad("pipeline.average_window must be >= 1, got %d", c.Pipeline.AverageWindow)
	}

	return errors.Join(errs...)
}
