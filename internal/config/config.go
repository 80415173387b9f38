// Package config handles viewer and scene configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Scene    SceneConfig    `yaml:"scene" toml:"scene"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Controls ControlsConfig `yaml:"controls" toml:"controls"`
	Light    LightConfig    `yaml:"light" toml:"light"`
	Pipeline PipelineConfig `yaml:"pipeline" toml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title         string  `yaml:"title" toml:"title"`
	Width         int     `yaml:"width" toml:"width"`
	Height        int     `yaml:"height" toml:"height"`
	Fullscreen    bool    `yaml:"fullscreen" toml:"fullscreen"`
	VSync         bool    `yaml:"vsync" toml:"vsync"`
	BrushSize     float32 `yaml:"brush_size" toml:"brush_size"`         // Stroke half-extent in model units
	ScreenshotDir string  `yaml:"screenshot_dir" toml:"screenshot_dir"` // F12 writes PNGs here
	Samples       int     `yaml:"msaa_samples" toml:"msaa_samples"`     // 0 disables multisampling
}

// SceneConfig describes what gets sampled and how it is ordered.
type SceneConfig struct {
	Model          string          `yaml:"model" toml:"model"`                     // Path to the .obj file
	StrokeDensity  float32         `yaml:"stroke_density" toml:"stroke_density"`   // Points per unit area
	Brushes        int             `yaml:"brushes" toml:"brushes"`                 // Number of brush variants
	Seed           uint64          `yaml:"seed" toml:"seed"`                       // 0 picks a random seed
	SortDescending bool            `yaml:"sort_descending" toml:"sort_descending"` // Near-to-far when true
	Transform      TransformConfig `yaml:"transform" toml:"transform"`
}

// TransformConfig is the initial world-space model transform.
type TransformConfig struct {
	Translation [3]float32 `yaml:"translation" toml:"translation"`
	RotationDeg [3]float32 `yaml:"rotation_deg" toml:"rotation_deg"` // Applied X, then Y, then Z
	Scale       float32    `yaml:"scale" toml:"scale"`
}

// CameraConfig is the initial camera pose.
type CameraConfig struct {
	Position  [3]float32 `yaml:"position" toml:"position"`
	Direction [3]float32 `yaml:"direction" toml:"direction"`
	FOVDeg    float32    `yaml:"fov_deg" toml:"fov_deg"`
	Near      float32    `yaml:"near" toml:"near"`
	Far       float32    `yaml:"far" toml:"far"`
}

// ControlsConfig holds input sensitivities applied by the simulation loop.
type ControlsConfig struct {
	OrbitSensitivity float32 `yaml:"orbit_sensitivity" toml:"orbit_sensitivity"` // Degrees per wheel unit
	ZoomStep         float32 `yaml:"zoom_step" toml:"zoom_step"`                 // World units per tick
	ModelRotateStep  float32 `yaml:"model_rotate_step" toml:"model_rotate_step"` // Degrees per tick
}

// LightConfig places the directional light.
type LightConfig struct {
	AzimuthDeg   float32 `yaml:"azimuth_deg" toml:"azimuth_deg"`     // Around +Y, 0 faces +Z
	ElevationDeg float32 `yaml:"elevation_deg" toml:"elevation_deg"` // Above the horizon
}

// PipelineConfig holds background loop settings.
type PipelineConfig struct {
	SimPeriod             Duration `yaml:"sim_period" toml:"sim_period"`
	SortPeriod            Duration `yaml:"sort_period" toml:"sort_period"`
	ParallelSortThreshold int      `yaml:"parallel_sort_threshold" toml:"parallel_sort_threshold"`
	Workers               int      `yaml:"workers" toml:"workers"` // 0 uses GOMAXPROCS
	AverageWindow         int      `yaml:"average_window" toml:"average_window"`
	WatchConfig           bool     `yaml:"watch_config" toml:"watch_config"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Duration is a time.Duration that reads and writes as "16ms" in both YAML and TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:         "stipple",
			Width:         1280,
			Height:        720,
			VSync:         true,
			BrushSize:     0.02,
			ScreenshotDir: "screenshots",
			Samples:       4,
		},
		Scene: SceneConfig{
			StrokeDensity:  3000,
			Brushes:        4,
			SortDescending: false,
			Transform: TransformConfig{
				Scale: 1,
			},
		},
		Camera: CameraConfig{
			Position:  [3]float32{2, 2, 2},
			Direction: [3]float32{-10, -10, -10},
			FOVDeg:    100,
			Near:      0.1,
			Far:       10,
		},
		Controls: ControlsConfig{
			OrbitSensitivity: 0.3,
			ZoomStep:         0.01,
			ModelRotateStep:  1,
		},
		Light: LightConfig{
			AzimuthDeg:   34,
			ElevationDeg: 54,
		},
		Pipeline: PipelineConfig{
			SimPeriod:             Duration(16 * time.Millisecond),
			SortPeriod:            Duration(17 * time.Millisecond),
			ParallelSortThreshold: 20000,
			AverageWindow:         32,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
