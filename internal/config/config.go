// Package config loads poseguard settings from an optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when a field is omitted from the config file.
const (
	DefaultFPS            = 15
	DefaultMinLikelihood  = 0.7
	DefaultRequiredFrames = 3
	DefaultHookTimeout    = "5s"
	DefaultListenAddr     = "localhost:8080"
	DefaultViewportWidth  = 1080
	DefaultViewportHeight = 1920

	// MaxViewportSide mirrors analyzer.MaxViewportSide without pulling gocv
	// into the config package.
	MaxViewportSide = 8192
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Viewport is the initial display area the overlay is fitted into.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Config is the root application configuration.
type Config struct {
	CameraID       int      `json:"camera_id"`
	FPS            int      `json:"fps"`
	FrontCamera    bool     `json:"front_camera"`
	MinLikelihood  float64  `json:"min_likelihood"`
	RequiredFrames int      `json:"required_frames"`
	DataDir        string   `json:"data_dir"`
	HookDir        string   `json:"hook_dir"`
	HookTimeout    string   `json:"hook_timeout"` // duration string like "5s"
	ListenAddr     string   `json:"listen_addr"`
	Viewport       Viewport `json:"viewport"`
	Headless       bool     `json:"headless"`
}

// Default returns the configuration used when no file is given.
// DataDir and HookDir live under ~/.poseguard.
func Default() *Config {
	base := ".poseguard"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".poseguard")
	}

	return &Config{
		CameraID:       0,
		FPS:            DefaultFPS,
		FrontCamera:    true,
		MinLikelihood:  DefaultMinLikelihood,
		RequiredFrames: DefaultRequiredFrames,
		DataDir:        base,
		HookDir:        filepath.Join(base, "hooks"),
		HookTimeout:    DefaultHookTimeout,
		ListenAddr:     DefaultListenAddr,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	}
}

// Load reads a Config from a JSON file. Fields omitted from the file keep
// their default values, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("camera_id must be non-negative, got %d", c.CameraID)
	}
	if c.FPS <= 0 || c.FPS > 120 {
		return fmt.Errorf("fps must be between 1 and 120, got %d", c.FPS)
	}
	if c.MinLikelihood <= 0 || c.MinLikelihood > 1 {
		return fmt.Errorf("min_likelihood must be in (0, 1], got %f", c.MinLikelihood)
	}
	if c.RequiredFrames <= 0 {
		return fmt.Errorf("required_frames must be positive, got %d", c.RequiredFrames)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.HookTimeout != "" {
		d, err := time.ParseDuration(c.HookTimeout)
		if err != nil {
			return fmt.Errorf("invalid hook_timeout '%s': %w", c.HookTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("hook_timeout must be positive, got %s", c.HookTimeout)
		}
	}
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions must be non-negative, got %gx%g", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Viewport.Width > MaxViewportSide || c.Viewport.Height > MaxViewportSide {
		return fmt.Errorf("viewport dimensions must not exceed %d, got %gx%g", MaxViewportSide, c.Viewport.Width, c.Viewport.Height)
	}
	return nil
}

// GetHookTimeout parses and returns HookTimeout as a time.Duration.
func (c *Config) GetHookTimeout() time.Duration {
	fallback, _ := time.ParseDuration(DefaultHookTimeout)
	if c.HookTimeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(c.HookTimeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DatabasePath returns the sqlite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "poseguard.db")
}
