// Package app implements the viewer: window, frame loop and the background
// sort pipeline feeding it.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stipple/internal/config"
	"github.com/Faultbox/stipple/internal/engine/input"
	"github.com/Faultbox/stipple/internal/engine/lighting"
	"github.com/Faultbox/stipple/internal/engine/renderer"
	"github.com/Faultbox/stipple/internal/engine/screenshot"
	"github.com/Faultbox/stipple/internal/engine/window"
	"github.com/Faultbox/stipple/internal/logger"
	"github.com/Faultbox/stipple/internal/pipeline"
	"github.com/Faultbox/stipple/internal/scene"
)

// App is the viewer instance.
type App struct {
	config     *config.Config
	configPath string

	window     *window.Window
	renderer   *renderer.Renderer
	input      *input.Input
	keys       *dispatcher
	screenshot *screenshot.Capture

	scene    *scene.Scene
	state    *pipeline.State
	mailbox  *pipeline.Mailbox[pipeline.BufferSet]
	pipeline *pipeline.Pipeline
	watcher  *config.Watcher

	// Settings that must be applied on the GL thread.
	pendingMu sync.Mutex
	pending   *renderSettings
}

type renderSettings struct {
	brushSize float32
	brushes   int
	lightDir  mgl32.Vec3
}

// New loads and samples the scene, then opens the window. configPath is watched for
// changes when cfg.Pipeline.WatchConfig is set; it may be empty.
func New(ctx context.Context, cfg *config.Config, configPath string) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("model", cfg.Scene.Model),
		zap.Float32("density", cfg.Scene.StrokeDensity),
		zap.Int("brushes", cfg.Scene.Brushes),
	)

	a := &App{
		config:     cfg,
		configPath: configPath,
	}

	var (
		buffers pipeline.BufferSet
		err     error
	)
	a.scene, buffers, err = scene.Load(ctx, cfg.Scene, cfg.Pipeline.Workers)
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}

	// Create window (this also creates OpenGL context)
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := a.window.DrawableSize()

	// Create renderer (AFTER window, since OpenGL context must exist)
	a.renderer, err = renderer.New(renderer.Config{
		Width:     width,
		Height:    height,
		BrushSize: cfg.Window.BrushSize,
		Brushes:   cfg.Scene.Brushes,
		LightDir:  lighting.LightDirection(cfg.Light.AzimuthDeg, cfg.Light.ElevationDeg),
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.renderer.Upload(buffers)

	a.input = input.New()
	a.keys = newDispatcher()
	a.screenshot = screenshot.New(cfg.Window.ScreenshotDir, "stipple")

	a.state = pipeline.NewState(
		scene.NewCamera(cfg.Camera, aspectRatio(width, height)),
		scene.ModelMatrix(cfg.Scene.Transform),
		cfg.Scene.SortDescending,
		Controls(cfg.Controls),
	)
	a.mailbox = pipeline.NewMailbox[pipeline.BufferSet]()
	a.pipeline = pipeline.New(a.state, buffers, a.mailbox, PipelineOptions(cfg.Pipeline))

	if cfg.Pipeline.WatchConfig {
		if configPath == "" {
			logger.Warn("config watching requested without a config file")
		} else if a.watcher, err = config.NewWatcher(configPath); err != nil {
			logger.Warn("config watching disabled", zap.Error(err))
		}
	}

	logger.Info("viewer initialized",
		zap.Int("models", len(a.scene.Models)),
		zap.Int("points", buffers.TotalPoints()),
	)
	return a, nil
}

// Run starts the background loops and runs the frame loop on the calling
// goroutine until the window is closed or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.pipeline.Run(gctx)
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(gctx, func(cfg *config.Config) {
				a.reload(gctx, cfg)
			})
		})
	}

	err := a.frameLoop(gctx)

	cancel()
	a.mailbox.Close()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

func (a *App) frameLoop(ctx context.Context) error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		quit := a.input.Update()
		dx, dy, wheel := a.input.Wheel()
		f := a.keys.dispatch(a.state, a.input.Events(), dx, dy, wheel)
		if quit || f.quit {
			logger.Info("quit requested")
			return nil
		}
		if f.resized {
			width, height := a.window.DrawableSize()
			a.renderer.Resize(width, height)
			a.state.SetAspectRatio(aspectRatio(width, height))
		}

		a.applyPending()

		if set, ok := a.mailbox.Drain(); ok {
			a.renderer.Upload(set)
		}

		a.renderer.Begin()
		a.renderer.Draw(a.state.Pose())
		a.renderer.End()
		if f.screenshot {
			a.saveScreenshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.window.SetTitle(Title(a.config.Window.Title, a.pipeline.Stats(), frameCount))
			logger.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// reload runs on the watcher goroutine. Sampling happens here; GL-side settings
// are handed to the frame loop.
func (a *App) reload(ctx context.Context, cfg *config.Config) {
	a.state.SetControls(Controls(cfg.Controls))

	if a.scene.NeedsResample(cfg.Scene) {
		buffers, err := a.scene.Sample(ctx, cfg.Scene.StrokeDensity, cfg.Scene.Brushes)
		if err != nil {
			logger.Warn("resample failed", zap.Error(err))
			return
		}
		a.pipeline.ReplaceBuffers(buffers)
		logger.Info("scene resampled",
			zap.Float32("density", cfg.Scene.StrokeDensity),
			zap.Int("brushes", cfg.Scene.Brushes),
			zap.Int("points", buffers.TotalPoints()),
		)
	}

	a.pendingMu.Lock()
	a.pending = &renderSettings{
		brushSize: cfg.Window.BrushSize,
		brushes:   a.scene.Brushes(),
		lightDir:  lighting.LightDirection(cfg.Light.AzimuthDeg, cfg.Light.ElevationDeg),
	}
	a.pendingMu.Unlock()
}

func (a *App) applyPending() {
	a.pendingMu.Lock()
	rs := a.pending
	a.pending = nil
	a.pendingMu.Unlock()

	if rs == nil {
		return
	}
	a.renderer.SetBrushSize(rs.brushSize)
	a.renderer.SetBrushes(rs.brushes)
	a.renderer.SetLightDir(rs.lightDir)
}

func (a *App) saveScreenshot() {
	pixels, width, height := a.renderer.ReadPixels()
	path, err := a.screenshot.SavePixels(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up viewer resources.
func (a *App) Close() {
	logger.Info("closing viewer")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

// Controls converts control settings for the simulation loop.
func Controls(cfg config.ControlsConfig) pipeline.Controls {
	return pipeline.Controls{
		OrbitSensitivity: cfg.OrbitSensitivity,
		ZoomStep:         cfg.ZoomStep,
		ModelRotateStep:  cfg.ModelRotateStep,
	}
}

// PipelineOptions converts loop settings.
func PipelineOptions(cfg config.PipelineConfig) pipeline.Options {
	return pipeline.Options{
		SimPeriod:         cfg.SimPeriod.Std(),
		SortPeriod:        cfg.SortPeriod.Std(),
		ParallelThreshold: cfg.ParallelSortThreshold,
		Workers:           cfg.Workers,
		AverageWindow:     cfg.AverageWindow,
	}
}

// Title formats the window title with pipeline timings.
func Title(base string, s pipeline.Stats, fps int) string {
	return fmt.Sprintf("%s | %d pts | sort %dµs (avg %dµs) | sim %dµs | %d fps | dropped %d",
		base, s.Points, s.LastSortMicros, s.AvgSortMicros, s.SimTickMicros, fps, s.Dropped)
}

func aspectRatio(width, height int) float32 {
	if height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
