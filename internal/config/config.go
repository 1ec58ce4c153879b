// Package config loads viewer settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is looked up in the working directory when no --config is given
const DefaultPath = "rectplacer.toml"

// Config is the full set of viewer settings
type Config struct {
	Window WindowConfig `toml:"window"`
	Scene  SceneConfig  `toml:"scene"`
	Log    LogConfig    `toml:"log"`
}

// WindowConfig controls the render surface
type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	TargetFPS int    `toml:"target_fps"`
	HighDPI   bool   `toml:"high_dpi"`
	MSAA      bool   `toml:"msaa"`
}

// SceneConfig controls the scene manager
type SceneConfig struct {
	MaxRects       int     `toml:"max_rects"`
	ShowAxes       bool    `toml:"show_axes"`
	AxesLength     float32 `toml:"axes_length"`
	SurfaceScale   float32 `toml:"surface_scale"`
	SkyTexture     string  `toml:"sky_texture"`
	GroundTexture  string  `toml:"ground_texture"`
	TextureMaxSize int     `toml:"texture_max_size"`
}

// LogConfig controls the slog handler installed by the CLI
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no file is present
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:     1400,
			Height:    900,
			Title:     "RectPlacer",
			TargetFPS: 60,
			HighDPI:   true,
			MSAA:      true,
		},
		Scene: SceneConfig{
			MaxRects:       200000,
			ShowAxes:       true,
			AxesLength:     25,
			SurfaceScale:   1,
			SkyTexture:     "assets/textures/skytile1.png",
			GroundTexture:  "assets/textures/paving_stones.jpg",
			TextureMaxSize: 2048,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file is not an error;
// a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the viewer cannot run with
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Scene.MaxRects <= 0 {
		return fmt.Errorf("scene.max_rects must be positive, got %d", c.Scene.MaxRects)
	}
	if c.Scene.SurfaceScale <= 0 {
		return fmt.Errorf("scene.surface_scale must be positive, got %v", c.Scene.SurfaceScale)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name onto slog
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
