package analysis

import (
	"math"

	"github.com/san-kum/wavestring/internal/wave"
)

// Reference is the exact solution of the string with homogeneous ends: an
// end of kind TimeDerivative is held still (u_t = 0) and an end of kind
// SpaceDerivative is free (u_x = 0). Invariants are traced back along
// their characteristics to t = 0, reflecting at each end they meet.
type Reference struct {
	Params         wave.Params
	InitUx, InitUt wave.Func
	Left, Right    wave.BoundaryKind
}

// At returns the exact (u_t, u_x) at position x and time t.
func (r Reference) At(x, t float64) wave.Point {
	return wave.FromInvariants(r.right(x, t), r.leftMoving(x, t), r.Params.A)
}

// Field samples the exact solution on an n-point grid.
func (r Reference) Field(n int, t float64) wave.Field {
	f := make(wave.Field, n)
	for i := range f {
		f[i] = r.At(float64(i)/float64(n-1)*r.Params.L, t)
	}
	return f
}

// MaxError is the largest absolute difference between field and the exact
// solution at time t, over both components.
func (r Reference) MaxError(field wave.Field, t float64) float64 {
	exact := r.Field(len(field), t)
	worst := 0.0
	for i := range field {
		worst = math.Max(worst, math.Abs(field[i].Ut-exact[i].Ut))
		worst = math.Max(worst, math.Abs(field[i].Ux-exact[i].Ux))
	}
	return worst
}

// PropagationTime is the physical time the grid has transported the
// invariants: one cell of L/(n-1) per step.
func PropagationTime(s *wave.Solver) float64 {
	return StepsToPropagationTime(s.Params(), s.Len(), s.Steps())
}

// StepsToPropagationTime is PropagationTime for a stored frame of an
// n-point grid.
func StepsToPropagationTime(p wave.Params, n, steps int) float64 {
	return float64(steps) * p.L / (p.A * float64(n-1))
}

func (r Reference) initial(x float64) (rInv, sInv float64) {
	return wave.Point{Ut: r.InitUt.Eval(x), Ux: r.InitUx.Eval(x)}.Invariants(r.Params.A)
}

// right is the right-moving invariant u_t - a*u_x at (x, t).
func (r Reference) right(x, t float64) float64 {
	a, l := r.Params.A, r.Params.L
	sign := 1.0
	for {
		if xi := x - a*t; xi >= 0 {
			ri, _ := r.initial(xi)
			return sign * ri
		}
		// Hit the left end at t0; it reflects the left-moving invariant.
		t0 := t - x/a
		sign *= reflection(r.Left)
		if eta := a * t0; eta <= l {
			_, si := r.initial(eta)
			return sign * si
		}
		// That left-moving invariant came off the right end.
		sign *= reflection(r.Right)
		x, t = l, t0-l/a
	}
}

// leftMoving is the left-moving invariant u_t + a*u_x at (x, t).
func (r Reference) leftMoving(x, t float64) float64 {
	a, l := r.Params.A, r.Params.L
	if eta := x + a*t; eta <= l {
		_, si := r.initial(eta)
		return si
	}
	t0 := t - (l-x)/a
	return reflection(r.Right) * r.right(l, t0)
}

// reflection is -1 for a held end and +1 for a free one.
func reflection(k wave.BoundaryKind) float64 {
	if k == wave.TimeDerivative {
		return -1
	}
	return 1
}
