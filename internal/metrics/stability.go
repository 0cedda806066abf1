package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/wavestring/internal/wave"
)

// MaxAbs returns the largest |Ut| and |Ux| over the field.
func MaxAbs(field wave.Field) (ut, ux float64) {
	if len(field) == 0 {
		return 0, 0
	}
	return floats.Norm(field.Ut(), math.Inf(1)), floats.Norm(field.Ux(), math.Inf(1))
}

// Amplitude tracks the peak |Ut| or |Ux| seen during a run.
type Amplitude struct {
	name  string
	space bool
	peak  float64
}

func NewAmplitude(space bool) *Amplitude {
	name := "max_abs_ut"
	if space {
		name = "max_abs_ux"
	}
	return &Amplitude{name: name, space: space}
}

func (a *Amplitude) Name() string { return a.name }

func (a *Amplitude) Observe(field wave.Field, p wave.Params, t float64) {
	ut, ux := MaxAbs(field)
	v := ut
	if a.space {
		v = ux
	}
	a.peak = math.Max(a.peak, v)
}

func (a *Amplitude) Value() float64 { return a.peak }

func (a *Amplitude) Reset() { a.peak = 0 }

// Stability is the fraction of frames whose field stayed within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(field wave.Field, p wave.Params, t float64) {
	s.samples++
	ut, ux := MaxAbs(field)
	if math.Max(ut, ux) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
