package wave

import "fmt"

// Interior computes the new value of an interior sample from its left and
// right neighbours at the previous step. The result carries the left
// neighbour's right-moving invariant and the right neighbour's left-moving one.
func Interior(left, right Point, a float64) Point {
	return Point{
		Ux: (left.Ux - left.Ut/a + right.Ux + right.Ut/a) / 2,
		Ut: (left.Ut - left.Ux*a + right.Ut + right.Ux*a) / 2,
	}
}

// EvalLeft applies b at the left end at time t, given the previous value p
// of the first interior sample.
func EvalLeft(b Boundary, t float64, p Point, a float64) (Point, error) {
	return evalEnd(b, t, p, a, -1)
}

// EvalRight applies b at the right end at time t, given the previous value p
// of the last interior sample.
func EvalRight(b Boundary, t float64, p Point, a float64) (Point, error) {
	return evalEnd(b, t, p, a, 1)
}

// evalEnd keeps the invariant arriving from the interior and fixes the
// prescribed derivative; sign is -1 at the left end and +1 at the right.
func evalEnd(b Boundary, t float64, p Point, a, sign float64) (Point, error) {
	if b.Func == nil {
		panic("wave: boundary has no function")
	}
	v := b.Func.Eval(t)
	if !isFinite(v) {
		return Point{}, fmt.Errorf("%w: %s(%g) = %v", ErrNonFinite, b.Kind, t, v)
	}
	switch b.Kind {
	case TimeDerivative:
		return Point{Ut: v, Ux: p.Ux + sign*(v-p.Ut)/a}, nil
	case SpaceDerivative:
		return Point{Ut: p.Ut + sign*(v-p.Ux)*a, Ux: v}, nil
	}
	panic(fmt.Sprintf("wave: unknown boundary kind %d", int(b.Kind)))
}
