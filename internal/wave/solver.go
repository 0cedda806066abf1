package wave

import (
	"fmt"
	"math"
)

// Solver marches the string forward on a fixed grid. It keeps two equally
// sized buffers and an index naming the current one; a step writes the
// other buffer from the current one and then flips the index.
//
// A Solver is not safe for concurrent use.
type Solver struct {
	params      Params
	left, right Boundary
	bufs        [2]Field
	active      int
	curT, remT  float64
	steps       int
}

// New builds a solver and tabulates the initial field.
func New(left, right Boundary, initUx, initUt Func, p Params) (*Solver, error) {
	s := &Solver{left: left, right: right}
	if err := s.Reset(initUx, initUt, p); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset replaces the parameters and regenerates both buffers. The clock
// keeps running so time-dependent boundaries stay continuous.
func (s *Solver) Reset(initUx, initUt Func, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	field, err := Tabulate(initUx, initUt, p.A, p.L)
	if err != nil {
		return err
	}
	s.params = p
	s.bufs = [2]Field{field, make(Field, len(field))}
	s.active = 0
	return nil
}

// Step advances the field by one StepDt. If a boundary function fails the
// error is returned and neither the clock nor the field changes.
func (s *Solver) Step() error {
	cur, next := s.bufs[s.active], s.bufs[1-s.active]
	n := len(cur)
	if len(next) != n {
		panic(fmt.Sprintf("wave: buffer length mismatch %d != %d", len(next), n))
	}
	a := s.params.A
	t := s.curT + s.StepDt()

	p, err := EvalLeft(s.left, t, cur[1], a)
	if err != nil {
		return &StepError{Step: s.steps + 1, Time: t, Side: LeftSide, Wrapped: err}
	}
	next[0] = p

	for i := 1; i < n-1; i++ {
		next[i] = Interior(cur[i-1], cur[i+1], a)
	}

	p, err = EvalRight(s.right, t, cur[n-2], a)
	if err != nil {
		return &StepError{Step: s.steps + 1, Time: t, Side: RightSide, Wrapped: err}
	}
	next[n-1] = p

	s.curT = t
	s.active = 1 - s.active
	s.steps++
	return nil
}

// Advance performs as many whole steps as fit in dt and records the
// leftover. The leftover is not carried into later calls. It returns the
// number of steps taken.
func (s *Solver) Advance(dt float64) (int, error) {
	if math.IsNaN(dt) || dt < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, dt)
	}
	stepDt := s.StepDt()
	count := math.Floor(dt / stepDt)
	if math.IsInf(count, 0) || count > math.MaxInt32 {
		panic(fmt.Sprintf("wave: cannot take %v steps of %v", count, stepDt))
	}
	s.remT = math.Mod(dt, stepDt)
	for i := 0; i < int(count); i++ {
		if err := s.Step(); err != nil {
			return i, err
		}
	}
	return int(count), nil
}

// StepDt is the simulated time covered by one step.
func (s *Solver) StepDt() float64 {
	return StepDt(s.params.A, s.params.L, len(s.bufs[s.active]))
}

// Field returns a copy of the current samples.
func (s *Solver) Field() Field { return s.bufs[s.active].Clone() }

// At returns the current sample at index i.
func (s *Solver) At(i int) Point { return s.bufs[s.active][i] }

// Len is the number of grid samples.
func (s *Solver) Len() int { return len(s.bufs[s.active]) }

// Position is the coordinate of sample i.
func (s *Solver) Position(i int) float64 {
	return float64(i) / float64(s.Len()-1) * s.params.L
}

func (s *Solver) Time() float64      { return s.curT }
func (s *Solver) Remainder() float64 { return s.remT }
func (s *Solver) Steps() int         { return s.steps }
func (s *Solver) Params() Params     { return s.params }
func (s *Solver) Left() Boundary     { return s.left }
func (s *Solver) Right() Boundary    { return s.right }

func (s *Solver) SetLeft(b Boundary)  { s.left = b }
func (s *Solver) SetRight(b Boundary) { s.right = b }

func (s *Solver) SetLeftKind(k BoundaryKind)  { s.left.Kind = k }
func (s *Solver) SetRightKind(k BoundaryKind) { s.right.Kind = k }

func (s *Solver) SetLeftFunc(f Func)  { s.left.Func = f }
func (s *Solver) SetRightFunc(f Func) { s.right.Func = f }
