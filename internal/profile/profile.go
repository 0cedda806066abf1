// Package profile builds the functions that feed the solver: initial
// conditions over position and boundary conditions over time.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wavestring/internal/wave"
)

var (
	ErrUnknownKind = errors.New("profile: unknown kind")
	ErrInvalidSpec = errors.New("profile: invalid parameters")
)

// Spec describes a function by kind and shape parameters. Unused fields
// are ignored by kinds that do not need them.
type Spec struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Amp    float64 `yaml:"amp,omitempty" json:"amp,omitempty"`
	Freq   float64 `yaml:"freq,omitempty" json:"freq,omitempty"`
	Phase  float64 `yaml:"phase,omitempty" json:"phase,omitempty"`
	Offset float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
	Center float64 `yaml:"center,omitempty" json:"center,omitempty"`
	Width  float64 `yaml:"width,omitempty" json:"width,omitempty"`
	Slope  float64 `yaml:"slope,omitempty" json:"slope,omitempty"`
	Rate   float64 `yaml:"rate,omitempty" json:"rate,omitempty"`
}

func (s Spec) String() string {
	switch s.Kind {
	case "", "zero":
		return "0"
	case "const":
		return fmt.Sprintf("%g", s.Offset)
	case "sin", "cos", "square", "triangle":
		return fmt.Sprintf("%s(%gx%g)", s.Kind, s.Amp, s.Freq)
	case "gauss", "pulse":
		return fmt.Sprintf("%s(%g@%g)", s.Kind, s.Amp, s.Center)
	}
	return s.Kind
}

type builder func(Spec) (wave.Func, error)

// Registry maps kind names to function builders.
type Registry struct {
	builders map[string]builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]builder)}

	r.builders["zero"] = func(Spec) (wave.Func, error) { return wave.Const(0), nil }
	r.builders["const"] = func(s Spec) (wave.Func, error) { return wave.Const(s.Offset), nil }
	r.builders["linear"] = func(s Spec) (wave.Func, error) {
		return wave.FuncOf(func(x float64) float64 { return s.Offset + s.Slope*x }), nil
	}
	r.builders["sin"] = func(s Spec) (wave.Func, error) {
		return wave.FuncOf(func(x float64) float64 {
			return s.Offset + s.Amp*math.Sin(2*math.Pi*s.Freq*x+s.Phase)
		}), nil
	}
	r.builders["cos"] = func(s Spec) (wave.Func, error) {
		return wave.FuncOf(func(x float64) float64 {
			return s.Offset + s.Amp*math.Cos(2*math.Pi*s.Freq*x+s.Phase)
		}), nil
	}
	r.builders["square"] = func(s Spec) (wave.Func, error) {
		if s.Freq <= 0 {
			return nil, fmt.Errorf("%w: square needs freq > 0", ErrInvalidSpec)
		}
		return wave.FuncOf(func(x float64) float64 {
			if math.Sin(2*math.Pi*s.Freq*x+s.Phase) >= 0 {
				return s.Offset + s.Amp
			}
			return s.Offset - s.Amp
		}), nil
	}
	r.builders["triangle"] = func(s Spec) (wave.Func, error) {
		if s.Freq <= 0 {
			return nil, fmt.Errorf("%w: triangle needs freq > 0", ErrInvalidSpec)
		}
		return wave.FuncOf(func(x float64) float64 {
			u := s.Freq*x + s.Phase/(2*math.Pi)
			u -= math.Floor(u)
			return s.Offset + s.Amp*(1-4*math.Abs(u-0.5))
		}), nil
	}
	r.builders["gauss"] = func(s Spec) (wave.Func, error) {
		if s.Width <= 0 {
			return nil, fmt.Errorf("%w: gauss needs width > 0", ErrInvalidSpec)
		}
		return wave.FuncOf(func(x float64) float64 {
			d := (x - s.Center) / s.Width
			return s.Offset + s.Amp*math.Exp(-d*d)
		}), nil
	}
	r.builders["pulse"] = func(s Spec) (wave.Func, error) {
		if s.Width <= 0 {
			return nil, fmt.Errorf("%w: pulse needs width > 0", ErrInvalidSpec)
		}
		return wave.FuncOf(func(x float64) float64 {
			d := (x - s.Center) / s.Width
			if math.Abs(d) >= 1 {
				return s.Offset
			}
			return s.Offset + s.Amp*0.5*(1+math.Cos(math.Pi*d))
		}), nil
	}
	r.builders["chirp"] = func(s Spec) (wave.Func, error) {
		return wave.FuncOf(func(x float64) float64 {
			return s.Offset + s.Amp*math.Sin(2*math.Pi*(s.Freq+0.5*s.Rate*x)*x+s.Phase)
		}), nil
	}

	return r
}

// Build returns the function described by s. An empty kind means zero.
func (r *Registry) Build(s Spec) (wave.Func, error) {
	kind := s.Kind
	if kind == "" {
		kind = "zero"
	}
	fn, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, s.Kind)
	}
	return fn(s)
}

// Kinds lists the registered kind names in order.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
