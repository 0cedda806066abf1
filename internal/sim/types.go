package sim

import (
	"fmt"

	"github.com/san-kum/wavestring/internal/wave"
)

// Metric accumulates a scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(field wave.Field, p wave.Params, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every frame. The field is a snapshot of the
// solver that the runner also keeps in its result: observers may retain
// it but must not modify it.
type Observer interface {
	OnFrame(t float64, steps int, field wave.Field)
}

type RunConfig struct {
	Duration    float64
	FrameDt     float64
	SampleEvery int
	// Probe is the fractional position whose values are recorded every frame.
	Probe float64
}

type Frame struct {
	Time  float64    `json:"time"`
	Steps int        `json:"steps"`
	Field wave.Field `json:"field"`
}

type Result struct {
	Params  wave.Params
	Frames  []Frame
	Times   []float64
	ProbeX  float64
	ProbeUt []float64
	ProbeUx []float64
	Metrics map[string]float64
	Steps   int
}

// Last returns the final recorded frame.
func (r *Result) Last() (Frame, bool) {
	if len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

type RunError struct {
	Frame int
	Time  float64
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("frame %d at t=%.4f: %v", e.Frame, e.Time, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
