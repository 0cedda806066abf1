package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/wavestring/internal/analysis"
	"github.com/san-kum/wavestring/internal/config"
	"github.com/san-kum/wavestring/internal/export"
	"github.com/san-kum/wavestring/internal/metrics"
	"github.com/san-kum/wavestring/internal/profile"
	"github.com/san-kum/wavestring/internal/server"
	"github.com/san-kum/wavestring/internal/sim"
	"github.com/san-kum/wavestring/internal/storage"
	"github.com/san-kum/wavestring/internal/viz"
	"github.com/san-kum/wavestring/internal/wave"
)

var (
	dataDir   string
	logLevel  string
	themeName string

	preset      string
	configFile  string
	waveSpeed   float64
	length      float64
	duration    float64
	frameDt     float64
	sampleEvery int
	probe       float64
	leftKind    string
	rightKind   string
	dbPath      string
	bound       float64

	frameIdx  int
	showProbe bool
	outFile   string
	width     int
	height    int
	style     string

	addr string
	tick time.Duration

	svgOut string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wavestring",
		Short: "vibrating string lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			if !viz.SetTheme(themeName) {
				return fmt.Errorf("unknown theme: %s (available: %v)", themeName, viz.ThemeNames())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(config.GetPreset("plucked"), "plucked")
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wavestring", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", viz.ThemeNight.Name, "color theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store the frames",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "plucked", "use preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), overrides --preset")
	runCmd.Flags().Float64Var(&waveSpeed, "a", config.DefaultA, "wave speed")
	runCmd.Flags().Float64Var(&length, "length", 0, "string length")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Float64Var(&frameDt, "frame-dt", config.DefaultFrameDt, "time between frames")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "keep every n-th frame")
	runCmd.Flags().Float64Var(&probe, "probe", config.DefaultProbe, "probe position as a fraction of the length")
	runCmd.Flags().StringVar(&leftKind, "left", "ut", "left boundary kind (ut or ux)")
	runCmd.Flags().StringVar(&rightKind, "right", "ut", "right boundary kind (ut or ux)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "also record every frame into a badger database at this path")
	runCmd.Flags().Float64Var(&bound, "bound", 1e6, "amplitude above which a run counts as unstable")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored frame",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index, negative counts from the end")
	plotCmd.Flags().BoolVar(&showProbe, "probe", false, "also plot the probe series")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width in cells")
	plotCmd.Flags().IntVar(&height, "height", 20, "plot height in cells")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored frame to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index, negative counts from the end")
	exportSVGCmd.Flags().IntVar(&width, "width", 480, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 480, "image height")
	exportSVGCmd.Flags().StringVar(&style, "style", "curves", "curves or dots")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, name, err := loadConfig()
			if err != nil {
				return err
			}
			return runLive(cfg, name)
		},
	}
	liveCmd.Flags().StringVar(&preset, "preset", "plucked", "use preset configuration")
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), overrides --preset")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulation over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&tick, "tick", server.DefaultTick, "wall time between frames")
	serveCmd.Flags().StringVar(&preset, "preset", "plucked", "use preset configuration")
	serveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), overrides --preset")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency, energy and reference analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "probe phase portrait (ux, ut)",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&svgOut, "svg", "", "also write the portrait as SVG to this file")

	compareCmd := &cobra.Command{
		Use:   "compare [preset1] [preset2] ...",
		Short: "run several presets side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE:  comparePresets,
	}
	compareCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	compareCmd.Flags().Float64Var(&frameDt, "frame-dt", config.DefaultFrameDt, "time between frames")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s a=%g L=%.4g left=%s(%s) right=%s(%s)\n",
					name, cfg.A, cfg.Length, cfg.Left.Type, cfg.Left.Func, cfg.Right.Type, cfg.Right.Func)
			}
			return nil
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "list function kinds usable in configs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range profile.NewRegistry().Kinds() {
				fmt.Printf("  %s\n", k)
			}
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportSVGCmd, exportJSONCmd, liveCmd, serveCmd,
		analyzeCmd, phaseCmd, compareCmd, presetsCmd, profilesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --config or --preset into a fresh config.
func loadConfig() (*config.Config, string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, "custom", nil
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	return cfg, preset, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}

	// CLI flags override the preset or config file.
	flags := cmd.Flags()
	if flags.Changed("a") {
		cfg.A = waveSpeed
	}
	if flags.Changed("length") {
		cfg.Length = length
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("frame-dt") {
		cfg.Run.FrameDt = frameDt
	}
	if flags.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleEvery
	}
	if flags.Changed("probe") {
		cfg.Run.Probe = probe
	}
	if flags.Changed("left") {
		cfg.Left.Type = leftKind
	}
	if flags.Changed("right") {
		cfg.Right.Type = rightKind
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := server.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer shutdown(context.Background())

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	solver, err := cfg.Build(profile.NewRegistry())
	if err != nil {
		return err
	}

	runner := sim.New(solver)
	runner.SetLogger(slog.Default())
	runner.AddMetric(metrics.NewEnergy())
	runner.AddMetric(metrics.NewEnergyDrift())
	runner.AddMetric(metrics.NewAmplitude(false))
	runner.AddMetric(metrics.NewAmplitude(true))
	runner.AddMetric(metrics.NewStability(bound))

	var rec *storage.Recorder
	if dbPath != "" {
		db, err := storage.OpenFrameDB(dbPath, 64)
		if err != nil {
			return err
		}
		defer db.Close()
		rec = storage.NewRecorder(db, fmt.Sprintf("%s_%d", name, time.Now().UnixNano()))
		runner.AddObserver(rec)
	}

	fmt.Printf("running %s: %d points, step %.6gs\n", name, solver.Len(), solver.StepDt())
	start := time.Now()

	result, runErr := runner.Run(ctx, sim.RunConfig{
		Duration:    cfg.Run.Duration,
		FrameDt:     cfg.Run.FrameDt,
		SampleEvery: cfg.Run.SampleEvery,
		Probe:       cfg.Run.Probe,
	})
	if result == nil {
		return runErr
	}
	if runErr != nil {
		fmt.Printf("run aborted: %v\n", runErr)
	}

	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	if rec != nil && rec.Err() != nil {
		return fmt.Errorf("frame db: %w", rec.Err())
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, frames: %d\n", result.Steps, len(result.Frames))
	fmt.Println("\nmetrics:")
	for _, m := range metricNames(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", m, result.Metrics[m])
	}

	return runErr
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tA\tLENGTH\tPOINTS\tENDS\tDURATION\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%.4g\t%d\t%s/%s\t%.2fs\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.A,
			run.Length,
			run.Points,
			run.Left, run.Right,
			run.Duration,
			run.Steps,
		)
	}

	return w.Flush()
}

func pickFrame(frames []sim.Frame, idx int) (sim.Frame, error) {
	if len(frames) == 0 {
		return sim.Frame{}, fmt.Errorf("no frames stored")
	}
	if idx < 0 {
		idx += len(frames)
	}
	if idx < 0 || idx >= len(frames) {
		return sim.Frame{}, fmt.Errorf("frame %d out of range (have %d)", frameIdx, len(frames))
	}
	return frames[idx], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	frame, err := pickFrame(res.Frames, frameIdx)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("t = %.4f (%d steps)\n\n", frame.Time, frame.Steps)
	fmt.Println(viz.Plot(frame.Field, meta.Length, width, height, viz.DefaultViews()))

	if showProbe && len(res.ProbeUt) > 0 {
		graph := asciigraph.PlotMany([][]float64{res.ProbeUt, res.ProbeUx},
			asciigraph.Height(10),
			asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
			asciigraph.Caption(fmt.Sprintf("probe at x=%.4g: ut (cyan), ux (magenta)", res.ProbeX)),
		)
		fmt.Println(graph)
	}

	return nil
}

func writeOutput(content string) error {
	if outFile == "" {
		_, err := fmt.Print(content)
		return err
	}
	if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	frame, err := pickFrame(res.Frames, frameIdx)
	if err != nil {
		return err
	}

	var svg string
	switch style {
	case "curves":
		svg = export.FieldToSVG(frame.Field, meta.Length, width, height, viz.DefaultViews())
	case "dots":
		canvas := viz.Draw(frame.Field, meta.Length, width/4, height/8, viz.DefaultViews())
		svg = export.CanvasToSVG(canvas, 2, string(viz.CurrentTheme.Ux))
	default:
		return fmt.Errorf("unknown style: %s (curves or dots)", style)
	}
	return writeOutput(svg)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := storage.ExportJSON(&sb, meta.Preset, cfg, res); err != nil {
		return err
	}
	return writeOutput(sb.String())
}

func runLive(cfg *config.Config, name string) error {
	model, err := viz.NewModel(cfg, name, profile.NewRegistry())
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := server.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer shutdown(context.Background())

	srv, err := server.New(cfg, profile.NewRegistry())
	if err != nil {
		return err
	}
	srv.SetTick(tick)
	srv.SetLogger(slog.Default())

	slog.Info("serving", "preset", name, "addr", addr, "tick", tick)
	return srv.ListenAndServe(ctx, addr)
}

// isZero reports whether s describes the zero function.
func isZero(s profile.Spec) bool {
	switch s.Kind {
	case "", "zero":
		return true
	case "const":
		return s.Offset == 0
	}
	return false
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d, steps: %d\n\n", len(res.Frames), res.Steps)

	if len(res.Times) > 1 {
		sampleDt := res.Times[1] - res.Times[0]
		fmt.Printf("probe at x=%.4g\n", res.ProbeX)
		fmt.Printf("  dominant frequency ut: %.4f Hz\n", analysis.DominantFrequency(res.ProbeUt, sampleDt))
		fmt.Printf("  dominant frequency ux: %.4f Hz\n", analysis.DominantFrequency(res.ProbeUx, sampleDt))
	}

	energies := make([]float64, len(res.Frames))
	for i, f := range res.Frames {
		energies[i] = metrics.FieldEnergy(f.Field, res.Params)
	}
	if len(energies) > 0 {
		fmt.Printf("\nenergy %s  %.6g -> %.6g\n", viz.Sparkline(energies, 40), energies[0], energies[len(energies)-1])
	}

	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	if !isZero(cfg.Left.Func) || !isZero(cfg.Right.Func) {
		fmt.Println("\nreference: skipped, ends are driven")
		return nil
	}

	reg := profile.NewRegistry()
	ux, ut, err := cfg.InitialFuncs(reg)
	if err != nil {
		return err
	}
	left, err := wave.ParseBoundaryKind(cfg.Left.Type)
	if err != nil {
		return err
	}
	right, err := wave.ParseBoundaryKind(cfg.Right.Type)
	if err != nil {
		return err
	}
	ref := analysis.Reference{Params: res.Params, InitUx: ux, InitUt: ut, Left: left, Right: right}

	worst := 0.0
	for _, f := range res.Frames {
		t := analysis.StepsToPropagationTime(res.Params, len(f.Field), f.Steps)
		worst = max(worst, ref.MaxError(f.Field, t))
	}
	fmt.Printf("\nreference: max error %.3g over %d frames\n", worst, len(res.Frames))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	_, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(res.ProbeUx) < 2 {
		return fmt.Errorf("not enough probe samples")
	}

	fmt.Printf("probe at x=%.4g, x-axis ux, y-axis ut\n\n", res.ProbeX)
	portrait := analysis.NewPhasePortrait(res.ProbeUx, res.ProbeUt)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 24))

	if svgOut != "" {
		svg := export.TrajectoryToSVG(res.ProbeUx, res.ProbeUt, 480, 480, string(viz.CurrentTheme.Ux))
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", svgOut)
	}
	return nil
}

func comparePresets(cmd *cobra.Command, args []string) error {
	reg := profile.NewRegistry()
	runners := make([]*sim.Runner, len(args))
	for i, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		solver, err := cfg.Build(reg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r := sim.New(solver)
		r.SetLogger(slog.Default().With("preset", name))
		r.AddMetric(metrics.NewEnergy())
		r.AddMetric(metrics.NewEnergyDrift())
		r.AddMetric(metrics.NewAmplitude(false))
		r.AddMetric(metrics.NewAmplitude(true))
		runners[i] = r
	}

	fmt.Printf("comparing %d presets over %.2fs...\n\n", len(args), duration)

	results, err := sim.RunAll(context.Background(), runners, sim.RunConfig{
		Duration:    duration,
		FrameDt:     frameDt,
		SampleEvery: 1,
		Probe:       config.DefaultProbe,
	})
	if err != nil {
		fmt.Printf("warning: %v\n\n", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPOINTS\tSTEPS\tENERGY\tDRIFT\tMAX|UT|\tMAX|UX|")
	for i, name := range args {
		res := results[i]
		if res == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\t%.3g\t%.4g\t%.4g\n",
			name,
			runners[i].Solver().Len(),
			res.Steps,
			res.Metrics["energy"],
			res.Metrics["energy_drift"],
			res.Metrics["max_abs_ut"],
			res.Metrics["max_abs_ux"],
		)
	}
	return w.Flush()
}
