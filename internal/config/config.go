package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/storycore/internal/system"
)

var ErrUnsupportedConfig = errors.New("unsupported config format")

type Config struct {
	OutputDir      string  `yaml:"output_dir" toml:"output_dir"`
	TimelineDir    string  `yaml:"timeline_dir" toml:"timeline_dir"`
	Renderer       string  `yaml:"renderer" toml:"renderer"`
	ScaleModel     string  `yaml:"scale_model" toml:"scale_model"`
	Width          int     `yaml:"width" toml:"width"`
	Height         int     `yaml:"height" toml:"height"`
	FPS            int     `yaml:"fps" toml:"fps"`
	DefaultFOV     float64 `yaml:"default_fov" toml:"default_fov"`
	Workers        int     `yaml:"workers" toml:"workers"`
	AnimationsPath string  `yaml:"animations" toml:"animations"`
	LogLevel       string  `yaml:"log_level" toml:"log_level"`
}

func Default() *Config {
	return &Config{
		OutputDir:   filepath.Join("output", "compositions"),
		TimelineDir: filepath.Join("output", "timelines"),
		Renderer:    "mock",
		ScaleModel:  "inverse-distance",
		Width:       1920,
		Height:      1080,
		FPS:         24,
		DefaultFOV:  45.0,
		Workers:     system.DefaultWorkers(),
		LogLevel:    "info",
	}
}

// Load reads a YAML or TOML file over the defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.DefaultFOV <= 0 || c.DefaultFOV >= 180 {
		return fmt.Errorf("invalid default fov %.2f", c.DefaultFOV)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
