package wave

import (
	"errors"
	"math"
	"testing"
)

func newTestSolver(t *testing.T, left, right Boundary) *Solver {
	t.Helper()
	s, err := New(left, right, FuncOf(math.Sin), Const(0), Params{A: 1, L: math.Pi})
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	return s
}

func TestNewInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"zero speed", Params{A: 0, L: 1}},
		{"negative length", Params{A: 1, L: -1}},
		{"NaN", Params{A: math.NaN(), L: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Fixed(), Fixed(), Const(0), Const(0), tt.p)
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestStepAdvancesClock(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	n := s.Len()
	want := 2 * math.Pi / float64(n-1)

	if math.Abs(s.StepDt()-want) > 1e-15 {
		t.Fatalf("StepDt = %g, want %g", s.StepDt(), want)
	}

	for i := 1; i <= 5; i++ {
		before := s.Time()
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.Len() != n {
			t.Errorf("step %d changed length to %d", i, s.Len())
		}
		if got := s.Time() - before; math.Abs(got-want) > 1e-12 {
			t.Errorf("step %d advanced clock by %g, want %g", i, got, want)
		}
		if s.Steps() != i {
			t.Errorf("Steps() = %d, want %d", s.Steps(), i)
		}
	}
}

func TestStepBoundaryExactness(t *testing.T) {
	f := FuncOf(func(t float64) float64 { return 0.5 * math.Cos(3*t) })
	g := FuncOf(func(t float64) float64 { return -0.2 * t })

	tests := []struct {
		name        string
		left, right Boundary
	}{
		{"ut both", Ut(f), Ut(g)},
		{"ux both", Ux(f), Ux(g)},
		{"ut left ux right", Ut(f), Ux(g)},
		{"ux left ut right", Ux(f), Ut(g)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSolver(t, tt.left, tt.right)
			for i := 0; i < 20; i++ {
				if err := s.Step(); err != nil {
					t.Fatalf("step: %v", err)
				}
				check := func(b Boundary, p Point) {
					want := b.Func.Eval(s.Time())
					got := p.Ut
					if b.Kind == SpaceDerivative {
						got = p.Ux
					}
					if got != want {
						t.Errorf("t=%g: boundary value %g, want %g", s.Time(), got, want)
					}
				}
				check(tt.left, s.At(0))
				check(tt.right, s.At(s.Len()-1))
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	dt := s.StepDt()

	steps, err := s.Advance(3*dt + 0.4*dt)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if steps != 3 || s.Steps() != 3 {
		t.Errorf("expected 3 steps, got %d (solver counted %d)", steps, s.Steps())
	}
	if math.Abs(s.Remainder()-0.4*dt) > 1e-12 {
		t.Errorf("remainder %g, want %g", s.Remainder(), 0.4*dt)
	}
	if math.Abs(s.Time()-3*dt) > 1e-12 {
		t.Errorf("clock %g, want %g", s.Time(), 3*dt)
	}
}

func TestAdvanceShorterThanStep(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	before := s.Field()

	steps, err := s.Advance(0.5 * s.StepDt())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if steps != 0 || s.Time() != 0 {
		t.Errorf("expected no step, got %d steps at t=%g", steps, s.Time())
	}
	after := s.Field()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("field changed at %d", i)
		}
	}
}

func TestAdvanceInvalid(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	for _, dt := range []float64{-1, math.NaN()} {
		if _, err := s.Advance(dt); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Advance(%v): expected ErrInvalidDuration, got %v", dt, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for infinite interval")
		}
	}()
	s.Advance(math.Inf(1))
}

func TestStepBoundaryFailure(t *testing.T) {
	calls := 0
	flaky := FuncOf(func(t float64) float64 {
		calls++
		if calls > 2 {
			return math.NaN()
		}
		return 0
	})
	s := newTestSolver(t, Fixed(), Ut(flaky))

	steps, err := s.Advance(5 * s.StepDt())
	if steps != 2 {
		t.Errorf("expected 2 completed steps, got %d", steps)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Side != RightSide || stepErr.Step != 3 {
		t.Errorf("unexpected error context: %+v", stepErr)
	}
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite in chain, got %v", err)
	}
	if s.Steps() != 2 || math.Abs(s.Time()-2*s.StepDt()) > 1e-12 {
		t.Errorf("failed step was committed: steps=%d t=%g", s.Steps(), s.Time())
	}
}

func TestFieldIsCopy(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	f := s.Field()
	f[10] = Point{Ut: 99, Ux: 99}
	if s.At(10).Ut == 99 {
		t.Error("Field() exposed internal buffer")
	}
}

func TestBuffersDoNotAlias(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	if &s.bufs[0][0] == &s.bufs[1][0] {
		t.Fatal("buffers share storage")
	}
	first := s.active
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.active == first {
		t.Error("step did not flip the active buffer")
	}
}

func TestSetters(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	n := s.Len()

	s.SetLeftKind(SpaceDerivative)
	s.SetRightFunc(Const(0.25))
	if s.Left().Kind != SpaceDerivative || s.Right().Func.Eval(0) != 0.25 {
		t.Fatalf("setters not applied: left=%v right=%v", s.Left(), s.Right())
	}
	s.SetLeftFunc(Const(-0.5))
	s.SetRightKind(SpaceDerivative)
	s.SetLeft(Ux(Const(-0.5)))
	s.SetRight(Ut(Const(0.25)))

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.Len() != n {
		t.Errorf("setter resized grid: %d != %d", s.Len(), n)
	}
	if s.At(0).Ux != -0.5 || s.At(n-1).Ut != 0.25 {
		t.Errorf("new boundaries not applied: %+v %+v", s.At(0), s.At(n-1))
	}
}

func TestResetRegenerates(t *testing.T) {
	s := newTestSolver(t, Fixed(), Fixed())
	for i := 0; i < 4; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	clock := s.Time()

	if err := s.Reset(Const(1), Const(2), Params{A: 1, L: 10}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Len() != 1201 {
		t.Errorf("expected 1201 samples after reset, got %d", s.Len())
	}
	if s.At(600) != (Point{Ut: 2, Ux: 1}) {
		t.Errorf("reset did not retabulate: %+v", s.At(600))
	}
	if s.Time() != clock {
		t.Errorf("reset changed clock from %g to %g", clock, s.Time())
	}
	if len(s.bufs[0]) != len(s.bufs[1]) {
		t.Error("scratch buffer not resized")
	}

	if err := s.Reset(Const(0), Const(0), Params{A: -1, L: 1}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
	if s.Len() != 1201 {
		t.Error("failed reset modified the grid")
	}
}

func BenchmarkStep(b *testing.B) {
	s, err := New(Fixed(), Fixed(), FuncOf(math.Sin), Const(0), Params{A: 1, L: 20})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
