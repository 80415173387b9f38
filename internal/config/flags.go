package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagModel      = flag.String("model", "", "Path to the .obj model")
	flagDensity    = flag.Float64("density", 0, "Stroke density in points per unit area")
	flagBrushes    = flag.Int("brushes", 0, "Number of brush variants")
	flagSeed       = flag.Uint64("seed", 0, "Sampling seed (0 = random)")
	flagDescending = flag.Bool("descending", false, "Sort near-to-far instead of far-to-near")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagWatch      = flag.Bool("watch", false, "Re-sample when the config file changes")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ModelArg returns the first positional argument, used as the model path when
// --model is not given.
func ModelArg() string {
	return flag.Arg(0)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagModel != "" {
		cfg.Scene.Model = *flagModel
	} else if arg := ModelArg(); arg != "" {
		cfg.Scene.Model = arg
	}
	if *flagDensity > 0 {
		cfg.Scene.StrokeDensity = float32(*flagDensity)
	}
	if *flagBrushes > 0 {
		cfg.Scene.Brushes = *flagBrushes
	}
	if *flagSeed != 0 {
		cfg.Scene.Seed = *flagSeed
	}
	if *flagDescending {
		cfg.Scene.SortDescending = true
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagWatch {
		cfg.Pipeline.WatchConfig = true
	}
}
