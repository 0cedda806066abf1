package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/san-kum/wavestring/internal/wave"
)

var tracer = otel.Tracer("github.com/san-kum/wavestring/internal/sim")

type Runner struct {
	solver    *wave.Solver
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

func New(solver *wave.Solver) *Runner {
	return &Runner{
		solver:    solver,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       slog.Default(),
	}
}

func (r *Runner) AddMetric(m Metric)       { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)   { r.observers = append(r.observers, o) }
func (r *Runner) SetLogger(l *slog.Logger) { r.log = l }
func (r *Runner) Solver() *wave.Solver     { return r.solver }

// Frames returns the number of frames a run of cfg takes.
func (cfg RunConfig) Frames() int {
	return int(math.Floor(cfg.Duration/cfg.FrameDt + 1e-9))
}

func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	frames := cfg.Frames()
	params := r.solver.Params()

	ctx, span := tracer.Start(ctx, "sim.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("wave.a", params.A),
		attribute.Float64("wave.length", params.L),
		attribute.Int("wave.points", r.solver.Len()),
		attribute.Int("sim.frames", frames),
	)

	result := &Result{
		Params:  params,
		Frames:  make([]Frame, 0, frames/cfg.SampleEvery+1),
		Times:   make([]float64, 0, frames+1),
		ProbeUt: make([]float64, 0, frames+1),
		ProbeUx: make([]float64, 0, frames+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	probe := r.probeIndex(cfg.Probe)
	result.ProbeX = r.solver.Position(probe)
	startSteps := r.solver.Steps()
	start := time.Now()

	r.log.Info("run started",
		"a", params.A, "length", params.L, "points", r.solver.Len(),
		"step_dt", r.solver.StepDt(), "frames", frames)

	r.record(result, cfg, probe, 0)

	for i := 1; i <= frames; i++ {
		select {
		case <-ctx.Done():
			r.log.Warn("run cancelled", "frame", i, "time", r.solver.Time())
			span.SetStatus(codes.Error, "cancelled")
			return result, ctx.Err()
		default:
		}

		if _, err := r.solver.Advance(cfg.FrameDt); err != nil {
			runErr := &RunError{Frame: i, Time: r.solver.Time(), Err: err}
			r.log.Error("run aborted", "frame", i, "time", r.solver.Time(), "err", err)
			span.RecordError(runErr)
			span.SetStatus(codes.Error, "solver failure")
			result.Steps = r.solver.Steps() - startSteps
			return result, runErr
		}

		r.record(result, cfg, probe, i)
	}

	result.Steps = r.solver.Steps() - startSteps
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	span.SetAttributes(attribute.Int("sim.steps", result.Steps))
	r.log.Info("run finished",
		"steps", result.Steps, "time", r.solver.Time(), "elapsed", time.Since(start))

	return result, nil
}

func (r *Runner) record(result *Result, cfg RunConfig, probe, frame int) {
	field := r.solver.Field()
	t := r.solver.Time()
	steps := r.solver.Steps()

	result.Times = append(result.Times, t)
	result.ProbeUt = append(result.ProbeUt, field[probe].Ut)
	result.ProbeUx = append(result.ProbeUx, field[probe].Ux)

	if frame%cfg.SampleEvery == 0 {
		result.Frames = append(result.Frames, Frame{Time: t, Steps: steps, Field: field})
	}

	for _, m := range r.metrics {
		m.Observe(field, result.Params, t)
	}
	for _, obs := range r.observers {
		obs.OnFrame(t, steps, field)
	}
}

func (r *Runner) probeIndex(frac float64) int {
	return int(math.Round(frac * float64(r.solver.Len()-1)))
}

func validateConfig(cfg RunConfig) error {
	if !(cfg.FrameDt > 0) || math.IsInf(cfg.FrameDt, 1) {
		return fmt.Errorf("frame dt must be positive and finite, got %f", cfg.FrameDt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 1) {
		return fmt.Errorf("duration must be positive and finite, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 1 {
		return fmt.Errorf("sample interval must be at least 1, got %d", cfg.SampleEvery)
	}
	if cfg.Probe < 0 || cfg.Probe > 1 {
		return fmt.Errorf("probe must lie in [0, 1], got %f", cfg.Probe)
	}
	return nil
}

// RunWithCallback advances frame by frame until the duration elapses, the
// callback returns false or ctx is done.
func (r *Runner) RunWithCallback(ctx context.Context, cfg RunConfig, callback func(Frame) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	frames := cfg.Frames()
	for i := 0; i <= frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if i > 0 {
			if _, err := r.solver.Advance(cfg.FrameDt); err != nil {
				return &RunError{Frame: i, Time: r.solver.Time(), Err: err}
			}
		}

		f := Frame{Time: r.solver.Time(), Steps: r.solver.Steps(), Field: r.solver.Field()}
		if !callback(f) {
			return nil
		}
	}

	return nil
}
