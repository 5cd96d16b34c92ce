// Package config loads viewer settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/stewi1014/fractalvis/dragpoint"
	"github.com/stewi1014/fractalvis/navigation"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Window struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Config struct {
	Window          Window  `yaml:"window"`
	Variant         string  `yaml:"variant"`
	Power           float64 `yaml:"power"`
	Iterations      int32   `yaml:"iterations"`
	ZoomSensitivity float64 `yaml:"zoom_sensitivity"`
	MinZoom         float64 `yaml:"min_zoom"`
	HandleRadius    float64 `yaml:"handle_radius"`
	TrackParent     bool    `yaml:"track_parent"`
	ShaderDir       string  `yaml:"shader_dir"`
	RemoteAddr      string  `yaml:"remote_addr"`
	LogLevel        string  `yaml:"log_level"`
	Debug           bool    `yaml:"debug"`
}

func Default() Config {
	return Config{
		Window:          Window{Width: 1200, Height: 800},
		Variant:         "julia",
		Power:           programs.DefaultPower,
		Iterations:      programs.DefaultIterations,
		ZoomSensitivity: navigation.DefaultSensitivity,
		MinZoom:         viewer.DefaultMinZoom,
		HandleRadius:    dragpoint.DefaultHandleRadius,
		TrackParent:     true,
		LogLevel:        "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (cfg Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return err
	}
	return enc.Close()
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, cfg.Window.Width, cfg.Window.Height))
	}
	if cfg.ZoomSensitivity <= 0 {
		errs = append(errs, fmt.Errorf("%w: zoom_sensitivity must be positive, got %v", ErrInvalid, cfg.ZoomSensitivity))
	}
	if cfg.MinZoom <= 0 {
		errs = append(errs, fmt.Errorf("%w: min_zoom must be positive, got %v", ErrInvalid, cfg.MinZoom))
	}
	if cfg.Iterations <= 0 || cfg.Iterations > viewer.MaxIterations {
		errs = append(errs, fmt.Errorf("%w: iterations must be in [1, %d], got %d", ErrInvalid, viewer.MaxIterations, cfg.Iterations))
	}
	if cfg.Power < viewer.MinPower {
		errs = append(errs, fmt.Errorf("%w: power must be at least %d, got %v", ErrInvalid, viewer.MinPower, cfg.Power))
	}
	if cfg.HandleRadius < 0 {
		errs = append(errs, fmt.Errorf("%w: handle_radius is negative", ErrInvalid))
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.Variant != "" {
		if _, err := programs.Lookup(cfg.Variant); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	}
	return errors.Join(errs...)
}

// Options returns the session options described by cfg.
func (cfg Config) Options() viewer.Options {
	return viewer.Options{
		Sensitivity:  cfg.ZoomSensitivity,
		MinZoom:      cfg.MinZoom,
		HandleRadius: cfg.HandleRadius,
		TrackParent:  cfg.TrackParent,
	}
}

// Apply pushes the live tunables of cfg into a running session.
func (cfg Config) Apply(s *viewer.Session) error {
	s.Configure(cfg.Options())
	snap := s.Snapshot()
	if snap.Power != cfg.Power {
		if err := s.Edit(viewer.FieldPower, cfg.Power); err != nil {
			return err
		}
	}
	if snap.Iterations != cfg.Iterations {
		if err := s.Edit(viewer.FieldIterations, float64(cfg.Iterations)); err != nil {
			return err
		}
	}
	return nil
}

func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalid, name)
}
