package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles derived from a theme, shared by the live view and CLI tables.
type Styles struct {
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
	Panel  lipgloss.Style
	Graph  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Text),
		Muted:  lipgloss.NewStyle().Foreground(t.Muted),
		Good:   lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn).Bold(true),
		Bad:    lipgloss.NewStyle().Foreground(t.Bad).Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		Graph: lipgloss.NewStyle().Foreground(t.U).Padding(1, 0),
	}
}

// Sparkline renders values as a row of block characters, resampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var b strings.Builder
	for i := 0; i < width; i++ {
		v := values[i*len(values)/width]
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(len(blocks)-1)))
		}
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// Bar renders a horizontal gauge of a fraction in [0, 1].
func Bar(frac float64, width int) string {
	frac = max(0, min(1, frac))
	filled := int(frac * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}
