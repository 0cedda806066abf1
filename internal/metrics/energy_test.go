package metrics

import (
	"context"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/san-kum/wavestring/internal/sim"
	"github.com/san-kum/wavestring/internal/wave"
)

func sineField(n int, p wave.Params) wave.Field {
	f := make(wave.Field, n)
	for i := range f {
		x := float64(i) / float64(n-1) * p.L
		f[i] = wave.Point{Ux: math.Sin(x)}
	}
	return f
}

func TestFieldEnergy(t *testing.T) {
	p := wave.Params{A: 2, L: math.Pi}
	got := FieldEnergy(sineField(1001, p), p)

	// ½·a²·∫sin² over [0, π]
	want := 0.5 * 4 * math.Pi / 2
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("expected energy %f, got %f", want, got)
	}

	if FieldEnergy(wave.Field{{Ut: 1}}, p) != 0 {
		t.Error("single point field should have zero energy")
	}
}

func TestEnergyReset(t *testing.T) {
	p := wave.Params{A: 1, L: 1}
	m := NewEnergy()

	m.Observe(wave.Field{{Ut: 1}, {Ut: 1}}, p, 0)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestEnergyDrift(t *testing.T) {
	p := wave.Params{A: 1, L: 1}
	m := NewEnergyDrift()

	m.Observe(wave.Field{{Ut: 1}, {Ut: 1}}, p, 0)
	m.Observe(wave.Field{{Ut: 1.1}, {Ut: 1.1}}, p, 1)
	m.Observe(wave.Field{{Ut: 1}, {Ut: 1}}, p, 2)

	if math.Abs(m.Value()-0.21) > 1e-9 {
		t.Errorf("expected drift 0.21, got %f", m.Value())
	}
}

func TestEnergyConservedByRun(t *testing.T) {
	p := wave.Params{A: 1, L: math.Pi}
	s, err := wave.New(wave.Fixed(), wave.Fixed(), wave.FuncOf(math.Sin), wave.Const(0), p)
	if err != nil {
		t.Fatal(err)
	}

	runner := sim.New(s)
	drift := NewEnergyDrift()
	runner.AddMetric(drift)
	runner.AddMetric(NewEnergy())

	result, err := runner.Run(context.Background(), sim.RunConfig{Duration: 2, FrameDt: 0.1, SampleEvery: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Metrics["energy_drift"] > 1e-3 {
		t.Errorf("energy drift %g too large", result.Metrics["energy_drift"])
	}
	if math.Abs(result.Metrics["energy"]-math.Pi/4) > 1e-3 {
		t.Errorf("expected energy near pi/4, got %f", result.Metrics["energy"])
	}
}

func TestAmplitude(t *testing.T) {
	p := wave.Params{A: 1, L: 1}
	ut := NewAmplitude(false)
	ux := NewAmplitude(true)

	for _, f := range []wave.Field{
		{{Ut: 0.5, Ux: -2}, {Ut: -1, Ux: 0}},
		{{Ut: 0.2, Ux: 1}, {Ut: 0.7, Ux: 0.1}},
	} {
		ut.Observe(f, p, 0)
		ux.Observe(f, p, 0)
	}

	if ut.Value() != 1 || ux.Value() != 2 {
		t.Errorf("expected peaks 1 and 2, got %f and %f", ut.Value(), ux.Value())
	}
	if ut.Name() == ux.Name() {
		t.Error("amplitude metrics should have distinct names")
	}
}

func TestStability(t *testing.T) {
	p := wave.Params{A: 1, L: 1}
	s := NewStability(1.0)

	s.Observe(wave.Field{{Ut: 0.5}}, p, 0)
	s.Observe(wave.Field{{Ux: 3}}, p, 1)

	if s.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", s.Value())
	}

	s.Reset()
	if s.Value() != 1.0 {
		t.Errorf("expected 1.0 after reset, got %f", s.Value())
	}
}

func TestTelemetryHandler(t *testing.T) {
	p := wave.Params{A: 1, L: 1}
	tel := NewTelemetry(p)

	field := wave.Field{{Ut: 1}, {Ut: 1}}
	tel.OnFrame(0.1, 6, field)
	tel.OnFrame(0.2, 12, field)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		"wavestring_frames_total 2",
		"wavestring_steps_total 12",
		"wavestring_sim_time_seconds 0.2",
		"wavestring_energy 0.5",
		"wavestring_frame_interval_seconds_count 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestTelemetrySetParams(t *testing.T) {
	tel := NewTelemetry(wave.Params{A: 1, L: 1})
	tel.OnFrame(0.1, 10, wave.Field{{}, {}})

	tel.SetParams(wave.Params{A: 1, L: 2})
	tel.OnFrame(0.2, 4, wave.Field{{Ut: 1}, {Ut: 1}})

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "wavestring_steps_total 14") {
		t.Errorf("expected steps to resume counting after reset:\n%s", body)
	}
	if !strings.Contains(string(body), "wavestring_energy 1") {
		t.Errorf("expected energy over the new length:\n%s", body)
	}
}
