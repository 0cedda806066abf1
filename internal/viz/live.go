package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wavestring/internal/config"
	"github.com/san-kum/wavestring/internal/metrics"
	"github.com/san-kum/wavestring/internal/profile"
	"github.com/san-kum/wavestring/internal/wave"
)

const (
	plotWidth       = 60
	plotHeight      = 20
	historyCapacity = 600
	frameInterval   = time.Second / 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live terminal view of a string. It owns its solver; all
// access happens on the bubbletea update goroutine.
type Model struct {
	reg     *profile.Registry
	cfg     *config.Config
	preset  string
	presets []string
	solver  *wave.Solver

	views         Views
	styles        Styles
	running       bool
	showHelp      bool
	energyHistory []float64
	err           error
}

// NewModel builds the view for cfg. The preset name is only a label and
// the starting point for preset cycling.
func NewModel(cfg *config.Config, preset string, reg *profile.Registry) (Model, error) {
	s, err := cfg.Build(reg)
	if err != nil {
		return Model{}, err
	}
	return Model{
		reg:           reg,
		cfg:           cfg,
		preset:        preset,
		presets:       config.ListPresets(),
		solver:        s,
		views:         DefaultViews(),
		styles:        NewStyles(CurrentTheme),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.advance(m.solver.StepDt())
			}
		case "r":
			m.reset()
		case "1":
			m.views.U.Visible = !m.views.U.Visible
		case "2":
			m.views.Ux.Visible = !m.views.Ux.Visible
		case "3":
			m.views.Ut.Visible = !m.views.Ut.Visible
		case "[":
			m.solver.SetLeftKind(flip(m.solver.Left().Kind))
		case "]":
			m.solver.SetRightKind(flip(m.solver.Right().Kind))
		case "p":
			m.nextPreset()
		case "t":
			CurrentTheme = NextTheme(CurrentTheme.Name)
			m.styles = NewStyles(CurrentTheme)
			m.views.U.Color, m.views.Ux.Color, m.views.Ut.Color = CurrentTheme.U, CurrentTheme.Ux, CurrentTheme.Ut
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.cfg.Run.FrameDt)
		}
		return m, tick()
	}
	return m, nil
}

func flip(k wave.BoundaryKind) wave.BoundaryKind {
	if k == wave.TimeDerivative {
		return wave.SpaceDerivative
	}
	return wave.TimeDerivative
}

func (m *Model) advance(dt float64) {
	if _, err := m.solver.Advance(dt); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.err = nil
	m.energyHistory = append(m.energyHistory, metrics.FieldEnergy(m.solver.Field(), m.solver.Params()))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// reset re-tabulates the initial condition in place. The clock keeps
// running, so time-dependent boundaries continue where they were.
func (m *Model) reset() {
	ux, ut, err := m.cfg.InitialFuncs(m.reg)
	if err == nil {
		err = m.solver.Reset(ux, ut, m.cfg.Params())
	}
	m.err = err
	m.energyHistory = m.energyHistory[:0]
}

func (m *Model) nextPreset() {
	if len(m.presets) == 0 {
		return
	}
	next := m.presets[0]
	for i, name := range m.presets {
		if name == m.preset {
			next = m.presets[(i+1)%len(m.presets)]
			break
		}
	}

	cfg := config.GetPreset(next)
	s, err := cfg.Build(m.reg)
	if err != nil {
		m.err = err
		return
	}
	m.preset, m.cfg, m.solver, m.err = next, cfg, s, nil
	m.energyHistory = m.energyHistory[:0]
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Bad.Render("HALTED")
	case m.running:
		return m.styles.Good.Render("RUNNING")
	default:
		return m.styles.Warn.Render("PAUSED")
	}
}

func (m Model) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

func (m Model) View() string {
	field := m.solver.Field()
	p := m.solver.Params()
	plot := lipgloss.NewStyle().Padding(1, 2).Render(Plot(field, p.L, plotWidth, plotHeight, m.views))

	var s strings.Builder
	s.WriteString(m.styles.Header.Render(strings.ToUpper(m.preset)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(m.styles.Graph.Render(chart) + "\n\n")
	}

	s.WriteString(m.row("Time", fmt.Sprintf("%.3f", m.solver.Time())))
	s.WriteString(m.row("Steps", fmt.Sprintf("%d", m.solver.Steps())))
	s.WriteString(m.row("Points", fmt.Sprintf("%d", m.solver.Len())))
	s.WriteString(m.row("Step dt", fmt.Sprintf("%.5f", m.solver.StepDt())))
	s.WriteString(m.row("a / L", fmt.Sprintf("%.3g / %.3g", p.A, p.L)))
	s.WriteString(m.row("Left", m.solver.Left().Kind.String()))
	s.WriteString(m.row("Right", m.solver.Right().Kind.String()))
	if len(m.energyHistory) > 0 {
		s.WriteString(m.row("Energy", fmt.Sprintf("%.4f", m.energyHistory[len(m.energyHistory)-1])))
	}

	s.WriteString("\n" + m.curveLegend())
	if m.err != nil {
		s.WriteString("\n" + m.styles.Bad.Render(m.err.Error()) + "\n")
	}
	s.WriteString(m.styles.Muted.Render("\nSP:Pause R:Reset P:Preset Q:Quit\n1-3:Curves [ ]:Ends ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, plot, m.styles.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

func (m Model) curveLegend() string {
	var b strings.Builder
	for _, c := range []struct {
		name string
		view CurveView
	}{{"u", m.views.U}, {"ux", m.views.Ux}, {"ut", m.views.Ut}} {
		mark := "·"
		if c.view.Visible {
			mark = "━"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(c.view.Color).Render(mark+" "+c.name) + "  ")
	}
	return b.String() + "\n"
}

const helpText = `
  Space  pause / resume
  .      single step while paused
  R      reset the initial condition
  1 2 3  toggle u, ux, ut curves
  [ ]    flip left / right boundary between ut and ux
  P      next preset
  T      next theme
  ?      toggle this help
  Q      quit`

// Solver exposes the model's solver, for tests and callers that inspect
// the final state after the program exits.
func (m Model) Solver() *wave.Solver { return m.solver }
