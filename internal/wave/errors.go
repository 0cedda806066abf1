package wave

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidParams indicates a wave speed or length that is not finite and positive.
	ErrInvalidParams = errors.New("wave: wave speed and length must be finite and positive")

	// ErrInvalidDuration indicates a negative or NaN advance interval.
	ErrInvalidDuration = errors.New("wave: advance interval must be a non-negative number")

	// ErrNonFinite indicates a supplied function produced NaN or Inf.
	ErrNonFinite = errors.New("wave: function returned a non-finite value")
)

// Side names the string end a boundary belongs to.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	if s == LeftSide {
		return "left"
	}
	return "right"
}

// StepError wraps a boundary failure with the step that hit it.
type StepError struct {
	Step    int
	Time    float64
	Side    Side
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f) %s boundary: %v", e.Step, e.Time, e.Side, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
