package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/wavestring/internal/wave"
)

// CurveView controls whether a curve is drawn and in which color.
type CurveView struct {
	Visible bool
	Color   lipgloss.Color
}

// Views selects the curves of a plot. U is the displacement relative to
// the left end, recovered by integrating Ux.
type Views struct {
	U  CurveView
	Ux CurveView
	Ut CurveView
}

// DefaultViews shows both derivatives in the current theme's colors.
func DefaultViews() Views {
	return Views{
		U:  CurveView{Visible: false, Color: CurrentTheme.U},
		Ux: CurveView{Visible: true, Color: CurrentTheme.Ux},
		Ut: CurveView{Visible: true, Color: CurrentTheme.Ut},
	}
}

// ScreenY maps a field value to a vertical screen coordinate. Zero sits
// in the middle and a value of L/2 reaches the top edge.
func ScreenY(v, l float64, h int) float64 {
	return float64(h) * (0.5 - v/l)
}

// ScreenX maps sample index i of n to a horizontal screen coordinate.
func ScreenX(i, n, w int) float64 {
	if n < 2 {
		return 0
	}
	return float64(w) * float64(i) / float64(n-1)
}

// Displacement integrates Ux with the trapezoidal rule, taking u = 0 at
// the left end.
func Displacement(field wave.Field, l float64) []float64 {
	u := make([]float64, len(field))
	if len(field) < 2 {
		return u
	}
	dx := l / float64(len(field)-1)
	for i := 1; i < len(field); i++ {
		u[i] = u[i-1] + 0.5*dx*(field[i-1].Ux+field[i].Ux)
	}
	return u
}

// DrawCurve draws values as a polyline spanning the canvas.
func DrawCurve(c *Canvas, values []float64, l float64) {
	w, h := c.Dots()
	if len(values) == 0 {
		return
	}
	// keep far off-screen points from making long line walks
	clamp := func(y float64) int {
		if math.IsNaN(y) {
			return -1
		}
		return int(math.Round(math.Max(-1, math.Min(float64(h), y))))
	}

	px, py := 0, clamp(ScreenY(values[0], l, h-1))
	c.Set(px, py)
	for i := 1; i < len(values); i++ {
		x := int(math.Round(ScreenX(i, len(values), w-1)))
		y := clamp(ScreenY(values[i], l, h-1))
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

type layer struct {
	canvas *Canvas
	color  lipgloss.Color
}

func layers(field wave.Field, l float64, w, h int, views Views) []layer {
	out := make([]layer, 0, 3)
	add := func(v CurveView, values func() []float64) {
		if !v.Visible {
			return
		}
		c := NewCanvas(w, h)
		DrawCurve(c, values(), l)
		out = append(out, layer{canvas: c, color: v.Color})
	}
	add(views.Ux, field.Ux)
	add(views.Ut, field.Ut)
	add(views.U, func() []float64 { return Displacement(field, l) })
	return out
}

// Draw renders the visible curves onto one uncolored canvas of w x h cells.
func Draw(field wave.Field, l float64, w, h int, views Views) *Canvas {
	out := NewCanvas(w, h)
	for _, ly := range layers(field, l, w, h, views) {
		out.Merge(ly.canvas)
	}
	return out
}

// Plot renders the visible curves, coloring each cell by the first curve
// that passes through it.
func Plot(field wave.Field, l float64, w, h int, views Views) string {
	ls := layers(field, l, w, h, views)
	merged := Draw(field, l, w, h, views)

	var b strings.Builder
	for r := 0; r < h; r++ {
		var run strings.Builder
		var runColor lipgloss.Color
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(runColor).Render(run.String()))
			}
			run.Reset()
		}

		for c := 0; c < w; c++ {
			var color lipgloss.Color
			for _, ly := range ls {
				if !ly.canvas.Empty(c, r) {
					color = ly.color
					break
				}
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteRune(merged.Cell(c, r))
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}
