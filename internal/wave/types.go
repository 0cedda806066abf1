package wave

import (
	"fmt"
	"math"
)

// Point holds the time and space derivatives of the displacement at one sample.
type Point struct {
	Ut float64 `json:"ut"`
	Ux float64 `json:"ux"`
}

// Invariants returns the right-moving (Ut - a*Ux) and left-moving (Ut + a*Ux)
// Riemann invariants of p.
func (p Point) Invariants(a float64) (r, s float64) {
	return p.Ut - a*p.Ux, p.Ut + a*p.Ux
}

// FromInvariants rebuilds a point from its two Riemann invariants.
func FromInvariants(r, s, a float64) Point {
	return Point{Ut: (r + s) / 2, Ux: (s - r) / (2 * a)}
}

func (p Point) IsValid() bool {
	return isFinite(p.Ut) && isFinite(p.Ux)
}

// Field is the string sampled on the grid; index 0 and len-1 are the ends.
type Field []Point

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

func (f Field) IsValid() bool {
	for _, p := range f {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

// Ut returns the time-derivative column.
func (f Field) Ut() []float64 {
	out := make([]float64, len(f))
	for i, p := range f {
		out[i] = p.Ut
	}
	return out
}

// Ux returns the space-derivative column.
func (f Field) Ux() []float64 {
	out := make([]float64, len(f))
	for i, p := range f {
		out[i] = p.Ux
	}
	return out
}

// Func is a real function of one variable: position for initial
// conditions, time for boundary conditions.
type Func interface {
	Eval(x float64) float64
}

// FuncOf adapts an ordinary function to Func.
type FuncOf func(float64) float64

func (f FuncOf) Eval(x float64) float64 { return f(x) }

// Const is a Func with a fixed value.
type Const float64

func (c Const) Eval(float64) float64 { return float64(c) }

// BoundaryKind selects which derivative a boundary prescribes.
type BoundaryKind int

const (
	// TimeDerivative prescribes u_t at the end.
	TimeDerivative BoundaryKind = iota
	// SpaceDerivative prescribes u_x at the end.
	SpaceDerivative
)

func (k BoundaryKind) String() string {
	switch k {
	case TimeDerivative:
		return "ut"
	case SpaceDerivative:
		return "ux"
	}
	return fmt.Sprintf("BoundaryKind(%d)", int(k))
}

// ParseBoundaryKind accepts "ut" or "ux".
func ParseBoundaryKind(s string) (BoundaryKind, error) {
	switch s {
	case "ut", "Ut", "time":
		return TimeDerivative, nil
	case "ux", "Ux", "space":
		return SpaceDerivative, nil
	}
	return 0, fmt.Errorf("wave: unknown boundary kind %q", s)
}

// Boundary is the condition applied at one end of the string.
type Boundary struct {
	Kind BoundaryKind
	Func Func
}

// Ut prescribes the time derivative at an end.
func Ut(f Func) Boundary { return Boundary{Kind: TimeDerivative, Func: f} }

// Ux prescribes the space derivative at an end.
func Ux(f Func) Boundary { return Boundary{Kind: SpaceDerivative, Func: f} }

// Fixed holds an end still (u_t = 0).
func Fixed() Boundary { return Ut(Const(0)) }

// Free leaves an end unloaded (u_x = 0).
func Free() Boundary { return Ux(Const(0)) }

// Params are the physical parameters of the string.
type Params struct {
	A float64 `json:"a" yaml:"a"`
	L float64 `json:"length" yaml:"length"`
}

func (p Params) Validate() error {
	if !isFinite(p.A) || !isFinite(p.L) || p.A <= 0 || p.L <= 0 {
		return fmt.Errorf("%w: a=%v length=%v", ErrInvalidParams, p.A, p.L)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
