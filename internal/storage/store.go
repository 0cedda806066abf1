package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/wavestring/internal/config"
	"github.com/san-kum/wavestring/internal/sim"
	"github.com/san-kum/wavestring/internal/wave"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	A         float64            `json:"a"`
	Length    float64            `json:"length"`
	Points    int                `json:"points"`
	Left      string             `json:"left"`
	Right     string             `json:"right"`
	FrameDt   float64            `json:"frame_dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	ProbeX    float64            `json:"probe_x"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json, config.yaml, frames.csv and probe.csv under a
// new run directory and returns the run id.
func (s *Store) Save(preset string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", preset, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	points := 0
	if len(result.Frames) > 0 {
		points = len(result.Frames[0].Field)
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: now,
		A:         cfg.A,
		Length:    cfg.Length,
		Points:    points,
		Left:      cfg.Left.Type,
		Right:     cfg.Right.Type,
		FrameDt:   cfg.Run.FrameDt,
		Duration:  cfg.Run.Duration,
		Steps:     result.Steps,
		ProbeX:    result.ProbeX,
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, "config.yaml"), cfg); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, "frames.csv"), result.Frames); err != nil {
		return "", err
	}
	if err := writeProbe(filepath.Join(runDir, "probe.csv"), result); err != nil {
		return "", err
	}

	slog.Debug("run saved", "id", runID, "frames", len(result.Frames), "dir", runDir)
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "steps", "i", "ut", "ux"}); err != nil {
		return err
	}
	for _, fr := range frames {
		t := formatFloat(fr.Time)
		steps := strconv.Itoa(fr.Steps)
		for i, p := range fr.Field {
			row := []string{t, steps, strconv.Itoa(i), formatFloat(p.Ut), formatFloat(p.Ux)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeProbe(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "ut", "ux"}); err != nil {
		return err
	}
	for i, t := range result.Times {
		row := []string{formatFloat(t), formatFloat(result.ProbeUt[i]), formatFloat(result.ProbeUx[i])}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadFrames reads frames.csv back into frames.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for n, record := range records {
		if n == 0 {
			continue
		}
		if len(record) != 5 {
			return nil, fmt.Errorf("frames.csv line %d: expected 5 fields, got %d", n+1, len(record))
		}

		var vals [5]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("frames.csv line %d: %w", n+1, err)
			}
			vals[j] = v
		}

		if int(vals[2]) == 0 {
			frames = append(frames, sim.Frame{Time: vals[0], Steps: int(vals[1])})
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("frames.csv line %d: frame does not start at index 0", n+1)
		}
		last := &frames[len(frames)-1]
		last.Field = append(last.Field, wave.Point{Ut: vals[3], Ux: vals[4]})
	}

	return frames, nil
}

// LoadProbe reads probe.csv.
func (s *Store) LoadProbe(runID string) (times, ut, ux []float64, err error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "probe.csv"))
	if err != nil {
		return nil, nil, nil, err
	}

	for n, record := range records {
		if n == 0 || len(record) != 3 {
			continue
		}

		var vals [3]float64
		for j, field := range record {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, nil, nil, fmt.Errorf("probe.csv line %d: %w", n+1, err)
			}
		}
		times = append(times, vals[0])
		ut = append(ut, vals[1])
		ux = append(ux, vals[2])
	}

	return times, ut, ux, nil
}

// LoadConfig reads the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, "config.yaml"))
}

// LoadResult reassembles a stored run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	times, ut, ux, err := s.LoadProbe(runID)
	if err != nil {
		return nil, nil, err
	}

	return meta, &sim.Result{
		Params:  wave.Params{A: meta.A, L: meta.Length},
		Frames:  frames,
		Times:   times,
		ProbeX:  meta.ProbeX,
		ProbeUt: ut,
		ProbeUx: ux,
		Metrics: meta.Metrics,
		Steps:   meta.Steps,
	}, nil
}
