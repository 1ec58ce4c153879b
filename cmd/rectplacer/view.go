package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/philipparndt/rectplacer/internal/scene"
	"github.com/philipparndt/rectplacer/internal/scene/rlgfx"
	"github.com/philipparndt/rectplacer/pkg/watcher"
)

// screenshotDelay is how many frames --screenshot waits so the first
// texture uploads can land
const screenshotDelay = 30

var viewFlags struct {
	stl        string
	watch      bool
	axes       bool
	noAxes     bool
	scale      float32
	screenshot string
}

var viewCmd = &cobra.Command{
	Use:   "view [rects-file]",
	Short: "Open the 3D viewer",
	Long: `Open the viewer with the definitions from rects-file and an optional STL
surface. Left drag rotates, right drag or Alt+left drag pans and the wheel
zooms. Press A to toggle the axes and P to save a screenshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	f := viewCmd.Flags()
	f.StringVar(&viewFlags.stl, "stl", "", "STL surface model to show")
	f.BoolVarP(&viewFlags.watch, "watch", "w", false, "Reload files when they change")
	f.BoolVar(&viewFlags.axes, "axes", true, "Show the coordinate axes")
	f.BoolVar(&viewFlags.noAxes, "no-axes", false, "Hide the coordinate axes")
	f.Float32Var(&viewFlags.scale, "scale", 0, "Surface model scale (default from config)")
	f.StringVar(&viewFlags.screenshot, "screenshot", "", "Render, save a PNG to this path and exit")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	opts := scene.Options{
		MaxRects:      cfg.Scene.MaxRects,
		ShowAxes:      cfg.Scene.ShowAxes,
		AxesLength:    cfg.Scene.AxesLength,
		SurfaceScale:  cfg.Scene.SurfaceScale,
		SkyTexture:    cfg.Scene.SkyTexture,
		GroundTexture: cfg.Scene.GroundTexture,
		Images:        scene.NewImageLoader(nil, cfg.Scene.TextureMaxSize, log),
		Logger:        log,
	}
	if cmd.Flags().Changed("axes") {
		opts.ShowAxes = viewFlags.axes
	}
	if viewFlags.noAxes {
		opts.ShowAxes = false
	}
	if viewFlags.scale > 0 {
		opts.SurfaceScale = viewFlags.scale
	}

	var window *rlgfx.Context
	m, err := scene.New(func() (scene.Context, error) {
		c, err := rlgfx.Open(rlgfx.Options{
			Width:     cfg.Window.Width,
			Height:    cfg.Window.Height,
			Title:     cfg.Window.Title,
			TargetFPS: cfg.Window.TargetFPS,
			HighDPI:   cfg.Window.HighDPI,
			MSAA:      cfg.Window.MSAA,
		})
		if err != nil {
			return nil, err
		}
		window = c
		return c, nil
	}, opts)
	if err != nil {
		return err
	}
	defer m.Dispose()

	out := termenv.NewOutput(os.Stderr)
	var rectsFile string
	if len(args) == 1 {
		rectsFile = args[0]
		applyRects(m, out, rectsFile)
	}
	if viewFlags.stl != "" {
		loadSurface(m, viewFlags.stl)
	}

	if viewFlags.watch {
		fw, err := watchFiles(m, out, rectsFile, viewFlags.stl)
		if err != nil {
			log.Warn("auto-reload unavailable", "error", err)
		} else {
			defer fw.Close()
		}
	}

	m.Loop().OnTick(func() {
		if w, h, ok := window.Resized(); ok {
			m.Resize(w, h)
		}
		if window.KeyPressed('a') {
			m.SetShowAxes(!m.ShowAxes())
		}
		if window.KeyPressed('p') {
			saveScreenshot(m, fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405")))
		}
		if viewFlags.screenshot != "" && m.Loop().Ticks() >= screenshotDelay {
			saveScreenshot(m, viewFlags.screenshot)
			m.Loop().Stop()
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyRects parses filename and replaces the rects. Must run on the loop.
func applyRects(m *scene.Manager, out *termenv.Output, filename string) {
	result, err := parseFile(filename)
	if err != nil {
		slog.Warn("definitions not loaded", "error", err)
		return
	}
	reportErrors(out, filename, result.Errors)

	stats := m.SetRects(result.Rects)
	slog.Info("rects applied",
		"file", filename,
		"normal", stats.Normal,
		"highlighted", stats.Highlighted,
		"dropped", stats.Dropped,
		"errors", len(result.Errors))
}

// loadSurface reads filename and hands it to the manager. Safe to call from
// any goroutine.
func loadSurface(m *scene.Manager, filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		slog.Warn("surface not loaded", "file", filename, "error", err)
		return
	}

	done := m.LoadSurfaceModel(data)
	go func() {
		switch err := <-done; {
		case err == nil:
			slog.Info("surface loaded", "file", filename)
		case errors.Is(err, scene.ErrStale), errors.Is(err, scene.ErrDisposed):
			slog.Debug("surface load dropped", "file", filename, "reason", err)
		default:
			slog.Warn("surface not loaded", "file", filename, "error", err)
		}
	}()
}

func saveScreenshot(m *scene.Manager, path string) {
	if err := m.TakeScreenshot(path); err != nil {
		slog.Warn("screenshot failed", "path", path, "error", err)
	}
}

// watchFiles reloads definitions and the surface model when they change
func watchFiles(m *scene.Manager, out *termenv.Output, rectsFile, stlFile string) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(300*time.Millisecond, slog.Default())
	if err != nil {
		return nil, err
	}

	if rectsFile != "" {
		err := fw.Watch(rectsFile, func(string) {
			m.Loop().Post(func() { applyRects(m, out, rectsFile) })
		})
		if err != nil {
			fw.Close()
			return nil, err
		}
	}
	if stlFile != "" {
		if err := fw.Watch(stlFile, func(string) { loadSurface(m, stlFile) }); err != nil {
			fw.Close()
			return nil, err
		}
	}

	fw.Start()
	slog.Info("watching for changes", "rects", rectsFile, "stl", stlFile)
	return fw, nil
}
