package wave

import (
	"fmt"
	"math"
)

const (
	// MinFramerate is the minimum number of steps per simulated second.
	MinFramerate = 60.0
	// MinTabulationSize is the smallest grid the solver will build.
	MinTabulationSize = 257
	// MaxTabulationSize caps the grid so a tiny wave speed cannot exhaust memory.
	MaxTabulationSize = 1 << 24
)

// GridSize returns the number of samples for a string of length l with
// wave speed a: enough that a step covers at most 1/MinFramerate seconds,
// and never fewer than MinTabulationSize.
func GridSize(a, l float64) (int, error) {
	if err := (Params{A: a, L: l}).Validate(); err != nil {
		return 0, err
	}
	n := math.Ceil(2*l/a*MinFramerate + 1)
	if n > MaxTabulationSize {
		return 0, fmt.Errorf("%w: grid of %.0f samples exceeds %d", ErrInvalidParams, n, MaxTabulationSize)
	}
	return max(MinTabulationSize, int(n)), nil
}

// StepDt is the time advanced by one step on an n-point grid.
func StepDt(a, l float64, n int) float64 {
	return 2 * l / (a * float64(n-1))
}

// Tabulate samples the initial derivatives at GridSize(a, l) evenly
// spaced positions over [0, l].
func Tabulate(initUx, initUt Func, a, l float64) (Field, error) {
	n, err := GridSize(a, l)
	if err != nil {
		return nil, err
	}
	field := make(Field, n)
	for i := range field {
		x := float64(i) / float64(n-1) * l
		ut, ux := initUt.Eval(x), initUx.Eval(x)
		if !isFinite(ut) {
			return nil, fmt.Errorf("%w: initial u_t(%g) = %v", ErrNonFinite, x, ut)
		}
		if !isFinite(ux) {
			return nil, fmt.Errorf("%w: initial u_x(%g) = %v", ErrNonFinite, x, ux)
		}
		field[i] = Point{Ut: ut, Ux: ux}
	}
	return field, nil
}
