package config

import (
	"math"
	"sort"

	"github.com/san-kum/wavestring/internal/profile"
)

var (
	zero  = profile.Spec{Kind: "zero"}
	fixed = BoundaryConfig{Type: "ut", Func: zero}
	free  = BoundaryConfig{Type: "ux", Func: zero}
	run   = RunConfig{Duration: 10, FrameDt: DefaultFrameDt, SampleEvery: 1, Probe: DefaultProbe}
)

var Presets = map[string]*Config{
	"plucked": {
		A: 1, Length: math.Pi,
		Initial: InitialConfig{Ux: profile.Spec{Kind: "sin", Amp: 1, Freq: 1 / (2 * math.Pi)}, Ut: zero},
		Left:    fixed, Right: fixed, Run: run,
	},
	"bump": {
		A: 1, Length: 4,
		Initial: InitialConfig{Ux: zero, Ut: profile.Spec{Kind: "gauss", Amp: 1, Center: 2, Width: 0.2}},
		Left:    fixed, Right: fixed, Run: run,
	},
	"free": {
		A: 1.5, Length: 3,
		Initial: InitialConfig{Ux: profile.Spec{Kind: "pulse", Amp: 0.8, Center: 1, Width: 0.4}, Ut: zero},
		Left:    free, Right: free, Run: run,
	},
	"driven": {
		A: 1, Length: 5,
		Initial: InitialConfig{Ux: zero, Ut: zero},
		Left:    BoundaryConfig{Type: "ut", Func: profile.Spec{Kind: "sin", Amp: 0.5, Freq: 0.4}},
		Right:   fixed,
		Run:     RunConfig{Duration: 20, FrameDt: DefaultFrameDt, SampleEvery: 2, Probe: 0.5},
	},
	"mixed": {
		A: 2, Length: 3,
		Initial: InitialConfig{Ux: profile.Spec{Kind: "gauss", Amp: 1, Center: 1.5, Width: 0.3}, Ut: zero},
		Left:    fixed, Right: free, Run: run,
	},
	"standing": {
		A: 1, Length: 2,
		Initial: InitialConfig{Ux: profile.Spec{Kind: "const", Offset: -0.4}, Ut: profile.Spec{Kind: "const", Offset: 0.25}},
		Left:    BoundaryConfig{Type: "ut", Func: profile.Spec{Kind: "const", Offset: 0.25}},
		Right:   BoundaryConfig{Type: "ux", Func: profile.Spec{Kind: "const", Offset: -0.4}},
		Run:     RunConfig{Duration: 5, FrameDt: DefaultFrameDt, SampleEvery: 1, Probe: 0.5},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
