// Package config loads the demo's settings from a TOML or YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Title         string    `toml:"title" yaml:"title"`
	Width         uint32    `toml:"width" yaml:"width"`
	Height        uint32    `toml:"height" yaml:"height"`
	Displays      int       `toml:"displays" yaml:"displays"`
	FrameInterval Duration  `toml:"frame_interval" yaml:"frame_interval"`
	LogLevel      string    `toml:"log_level" yaml:"log_level"`
	ClearColor    []float32 `toml:"clear_color" yaml:"clear_color"`
}

// Duration is a time.Duration written as a string such as "16ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		Title:         "glwin",
		Width:         1280,
		Height:        960,
		Displays:      1,
		FrameInterval: Duration{16 * time.Millisecond},
		LogLevel:      "info",
		ClearColor:    []float32{0.1, 0.1, 0.12, 1},
	}
}

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (c *Config) Validate() error {
	if c.Width == 0 {
		return &ValidationError{Path: "width", Err: errors.New("width must be > 0")}
	}
	if c.Height == 0 {
		return &ValidationError{Path: "height", Err: errors.New("height must be > 0")}
	}
	if c.Displays < 1 {
		return &ValidationError{Path: "displays", Err: errors.New("displays must be >= 1")}
	}
	if c.FrameInterval.Duration < 0 {
		return &ValidationError{Path: "frame_interval", Err: errors.New("frame_interval must be >= 0")}
	}
	if _, err := c.Level(); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if len(c.ClearColor) != 4 {
		return &ValidationError{Path: "clear_color", Err: fmt.Errorf("clear_color needs 4 components, got %d", len(c.ClearColor))}
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return &ValidationError{Path: fmt.Sprintf("clear_color[%d]", i), Err: fmt.Errorf("%g is outside [0, 1]", v)}
		}
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// Load reads path over the defaults and validates the result. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults untouched.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in the format picked by its extension.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
