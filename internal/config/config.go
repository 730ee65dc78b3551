package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/doodle/internal/clock"
	"github.com/san-kum/doodle/internal/noise"
	"github.com/san-kum/doodle/internal/shader"
	"github.com/san-kum/doodle/internal/viewport"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS     = 60
	DefaultBackend = "auto"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Preset        string        `yaml:"preset,omitempty"`
	Palette       []float64     `yaml:"palette"`
	Bands         int           `yaml:"bands"`
	ResolutionCap int           `yaml:"resolution_cap"`
	EpochPeriod   time.Duration `yaml:"epoch_period"`
	EpochScale    float64       `yaml:"epoch_scale"`
	FPS           int           `yaml:"fps"`
	Backend       string        `yaml:"backend"`
	Workers       int           `yaml:"workers"`
}

func DefaultConfig() *Config {
	p := shader.DefaultPaletteConstant
	return &Config{
		Palette:       []float64{p.X, p.Y, p.Z},
		Bands:         shader.DefaultBands,
		ResolutionCap: viewport.DefaultCap,
		EpochPeriod:   clock.DefaultEpochPeriod,
		EpochScale:    clock.DefaultEpochScale,
		FPS:           DefaultFPS,
		Backend:       DefaultBackend,
	}
}

// Load reads a YAML file over the defaults. A preset named in the file is
// applied before the file's own values are validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Palette) != 3 {
		return fmt.Errorf("%w: palette needs 3 components, got %d", ErrInvalid, len(c.Palette))
	}
	if c.Bands <= 0 {
		return fmt.Errorf("%w: bands must be positive, got %d", ErrInvalid, c.Bands)
	}
	if c.ResolutionCap <= 0 {
		return fmt.Errorf("%w: resolution_cap must be positive, got %d", ErrInvalid, c.ResolutionCap)
	}
	if c.EpochPeriod < time.Millisecond {
		return fmt.Errorf("%w: epoch_period must be at least 1ms, got %v", ErrInvalid, c.EpochPeriod)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	return nil
}

// PaletteConstant returns the palette phase vector.
func (c *Config) PaletteConstant() noise.Vec3 {
	if len(c.Palette) != 3 {
		return shader.DefaultPaletteConstant
	}
	return noise.Vec3{X: c.Palette[0], Y: c.Palette[1], Z: c.Palette[2]}
}

// Interval is the tick period for the configured frame rate.
func (c *Config) Interval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(c.FPS)
}

// Program builds the shader program for this configuration.
func (c *Config) Program() *shader.Program {
	p := shader.NewProgram()
	if c.Bands > 0 {
		p.Bands = c.Bands
	}
	return p
}
