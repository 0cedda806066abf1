package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/wavestring/internal/profile"
	"github.com/san-kum/wavestring/internal/wave"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Left.Type != "ut" || cfg.Right.Type != "ut" {
		t.Errorf("expected fixed ends, got %s/%s", cfg.Left.Type, cfg.Right.Type)
	}
	if cfg.Run.FrameDt <= 0 {
		t.Error("frame_dt should be positive")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "string.yaml")
	cfg := GetPreset("driven")
	cfg.Run.Duration = 3

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Length != 5 || loaded.Run.Duration != 3 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Left.Func.Kind != "sin" || loaded.Left.Func.Freq != 0.4 {
		t.Errorf("left boundary func not preserved: %+v", loaded.Left.Func)
	}
}

func TestSaveLoadKeepsZeroFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chirp.yaml")
	cfg := DefaultConfig()
	cfg.Initial.Ux = profile.Spec{Kind: "chirp", Amp: 1, Rate: 2}
	cfg.Right = BoundaryConfig{Type: "ux", Func: profile.Spec{Kind: "zero"}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Initial != cfg.Initial || loaded.Left != cfg.Left || loaded.Right != cfg.Right {
		t.Errorf("round trip changed functions:\n got %+v\nwant %+v", loaded, cfg)
	}

	reg := profile.NewRegistry()
	want, _ := reg.Build(cfg.Initial.Ux)
	got, err := reg.Build(loaded.Initial.Ux)
	if err != nil {
		t.Fatal(err)
	}
	if got.Eval(1) != want.Eval(1) {
		t.Errorf("loaded chirp differs: %g vs %g", got.Eval(1), want.Eval(1))
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "length: 2\ninitial:\n  ux: {kind: gauss, amp: 1, center: 1, width: 0.2}\nrun:\n  duration: 4\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	def := DefaultConfig()
	if cfg.A != def.A || cfg.Length != 2 {
		t.Errorf("unexpected scalars a=%g length=%g", cfg.A, cfg.Length)
	}
	if cfg.Initial.Ux.Freq != 0 || cfg.Initial.Ut.Kind != "" {
		t.Errorf("initial section should replace the default whole: %+v", cfg.Initial)
	}
	if cfg.Left != def.Left || cfg.Right != def.Right {
		t.Errorf("absent boundaries should keep defaults: %+v %+v", cfg.Left, cfg.Right)
	}
	if cfg.Run.Duration != 4 || cfg.Run.FrameDt != def.Run.FrameDt {
		t.Errorf("run settings should merge with defaults: %+v", cfg.Run)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero speed", func(c *Config) { c.A = 0 }},
		{"negative length", func(c *Config) { c.Length = -1 }},
		{"bad left type", func(c *Config) { c.Left.Type = "uy" }},
		{"bad right type", func(c *Config) { c.Right.Type = "" }},
		{"zero duration", func(c *Config) { c.Run.Duration = 0 }},
		{"zero frame", func(c *Config) { c.Run.FrameDt = 0 }},
		{"endless duration", func(c *Config) { c.Run.Duration = math.Inf(1) }},
		{"zero sampling", func(c *Config) { c.Run.SampleEvery = 0 }},
		{"probe off string", func(c *Config) { c.Run.Probe = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	reg := profile.NewRegistry()

	s, err := GetPreset("mixed").Build(reg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if s.Left().Kind != wave.TimeDerivative || s.Right().Kind != wave.SpaceDerivative {
		t.Errorf("unexpected boundary kinds %v/%v", s.Left().Kind, s.Right().Kind)
	}
	if got := s.At(s.Len() / 2).Ux; math.Abs(got-1) > 0.01 {
		t.Errorf("expected gaussian peak near the middle, got %g", got)
	}

	cfg := DefaultConfig()
	cfg.Initial.Ut.Kind = "sawtooth"
	if _, err := cfg.Build(reg); !errors.Is(err, profile.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}

	reg := profile.NewRegistry()
	for _, name := range names {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if _, err := cfg.Build(reg); err != nil {
			t.Errorf("preset %s does not build: %v", name, err)
		}
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetIsCopy(t *testing.T) {
	cfg := GetPreset("plucked")
	cfg.A = 42
	if Presets["plucked"].A == 42 {
		t.Error("GetPreset returned shared config")
	}
}
