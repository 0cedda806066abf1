package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/wavestring/internal/config"
	"github.com/san-kum/wavestring/internal/sim"
)

type ExportData struct {
	Preset  string             `json:"preset"`
	Config  *config.Config     `json:"config"`
	Steps   int                `json:"steps"`
	Times   []float64          `json:"times"`
	ProbeX  float64            `json:"probe_x"`
	ProbeUt []float64          `json:"probe_ut"`
	ProbeUx []float64          `json:"probe_ux"`
	Frames  []sim.Frame        `json:"frames"`
	Metrics map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, preset string, cfg *config.Config, result *sim.Result) error {
	data := ExportData{
		Preset:  preset,
		Config:  cfg,
		Steps:   result.Steps,
		Times:   result.Times,
		ProbeX:  result.ProbeX,
		ProbeUt: result.ProbeUt,
		ProbeUx: result.ProbeUx,
		Frames:  result.Frames,
		Metrics: result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
