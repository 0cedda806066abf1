package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavestring/internal/profile"
	"github.com/san-kum/wavestring/internal/wave"
)

const (
	DefaultA           = 1.0
	DefaultDuration    = 10.0
	DefaultFrameDt     = 1.0 / 60
	DefaultSampleEvery = 1
	DefaultProbe       = 0.25
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	A       float64        `yaml:"a" json:"a"`
	Length  float64        `yaml:"length" json:"length"`
	Initial InitialConfig  `yaml:"initial" json:"initial"`
	Left    BoundaryConfig `yaml:"left" json:"left"`
	Right   BoundaryConfig `yaml:"right" json:"right"`
	Run     RunConfig      `yaml:"run" json:"run"`
}

// InitialConfig holds the derivatives of the displacement at t = 0.
type InitialConfig struct {
	Ux profile.Spec `yaml:"ux" json:"ux"`
	Ut profile.Spec `yaml:"ut" json:"ut"`
}

type BoundaryConfig struct {
	Type string       `yaml:"type" json:"type"`
	Func profile.Spec `yaml:"func" json:"func"`
}

type RunConfig struct {
	Duration    float64 `yaml:"duration" json:"duration"`
	FrameDt     float64 `yaml:"frame_dt" json:"frame_dt"`
	SampleEvery int     `yaml:"sample_every" json:"sample_every"`
	// Probe is the fractional position along the string recorded every frame.
	Probe float64 `yaml:"probe" json:"probe"`
}

func DefaultConfig() *Config {
	return &Config{
		A:      DefaultA,
		Length: math.Pi,
		Initial: InitialConfig{
			Ux: profile.Spec{Kind: "sin", Amp: 1, Freq: 1 / (2 * math.Pi)},
			Ut: profile.Spec{Kind: "zero"},
		},
		Left:  BoundaryConfig{Type: "ut", Func: profile.Spec{Kind: "zero"}},
		Right: BoundaryConfig{Type: "ut", Func: profile.Spec{Kind: "zero"}},
		Run: RunConfig{
			Duration:    DefaultDuration,
			FrameDt:     DefaultFrameDt,
			SampleEvery: DefaultSampleEvery,
			Probe:       DefaultProbe,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	// Scalars and run settings fall back to defaults one by one. A function
	// section that is present replaces its default whole, so fields the
	// file leaves out are zero rather than inherited from another kind.
	file := struct {
		A       *float64        `yaml:"a"`
		Length  *float64        `yaml:"length"`
		Initial *InitialConfig  `yaml:"initial"`
		Left    *BoundaryConfig `yaml:"left"`
		Right   *BoundaryConfig `yaml:"right"`
		Run     *RunConfig      `yaml:"run"`
	}{A: &cfg.A, Length: &cfg.Length, Run: &cfg.Run}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if file.Initial != nil {
		cfg.Initial = *file.Initial
	}
	if file.Left != nil {
		cfg.Left = *file.Left
	}
	if file.Right != nil {
		cfg.Right = *file.Right
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

func (c *Config) Params() wave.Params {
	return wave.Params{A: c.A, L: c.Length}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := wave.ParseBoundaryKind(c.Left.Type); err != nil {
		return fmt.Errorf("%w: left: %v", ErrInvalid, err)
	}
	if _, err := wave.ParseBoundaryKind(c.Right.Type); err != nil {
		return fmt.Errorf("%w: right: %v", ErrInvalid, err)
	}
	if !(c.Run.Duration > 0) || math.IsInf(c.Run.Duration, 1) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Run.Duration)
	}
	if !(c.Run.FrameDt > 0) || math.IsInf(c.Run.FrameDt, 1) {
		return fmt.Errorf("%w: frame_dt must be positive, got %g", ErrInvalid, c.Run.FrameDt)
	}
	if c.Run.SampleEvery < 1 {
		return fmt.Errorf("%w: sample_every must be at least 1, got %d", ErrInvalid, c.Run.SampleEvery)
	}
	if c.Run.Probe < 0 || c.Run.Probe > 1 {
		return fmt.Errorf("%w: probe must lie in [0, 1], got %g", ErrInvalid, c.Run.Probe)
	}
	return nil
}

// Boundary builds the boundary condition described by b.
func (b BoundaryConfig) Boundary(reg *profile.Registry) (wave.Boundary, error) {
	kind, err := wave.ParseBoundaryKind(b.Type)
	if err != nil {
		return wave.Boundary{}, err
	}
	fn, err := reg.Build(b.Func)
	if err != nil {
		return wave.Boundary{}, err
	}
	return wave.Boundary{Kind: kind, Func: fn}, nil
}

// InitialFuncs builds the initial-condition functions.
func (c *Config) InitialFuncs(reg *profile.Registry) (ux, ut wave.Func, err error) {
	if ux, err = reg.Build(c.Initial.Ux); err != nil {
		return nil, nil, fmt.Errorf("initial ux: %w", err)
	}
	if ut, err = reg.Build(c.Initial.Ut); err != nil {
		return nil, nil, fmt.Errorf("initial ut: %w", err)
	}
	return ux, ut, nil
}

// Build validates the config and constructs a solver from it.
func (c *Config) Build(reg *profile.Registry) (*wave.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	left, err := c.Left.Boundary(reg)
	if err != nil {
		return nil, fmt.Errorf("left boundary: %w", err)
	}
	right, err := c.Right.Boundary(reg)
	if err != nil {
		return nil, fmt.Errorf("right boundary: %w", err)
	}
	ux, ut, err := c.InitialFuncs(reg)
	if err != nil {
		return nil, err
	}
	return wave.New(left, right, ux, ut, c.Params())
}

// Clone returns a deep copy; presets are shared values.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
