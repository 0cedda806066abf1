package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/wavestring/internal/viz"
	"github.com/san-kum/wavestring/internal/wave"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func writePath(sb *strings.Builder, values []float64, l float64, width, height int, color string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
	for i, v := range values {
		x := viz.ScreenX(i, len(values), width)
		y := finite(viz.ScreenY(v, l, height))
		if i == 0 {
			fmt.Fprintf(sb, "M%.2f,%.2f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.2f,%.2f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// FieldToSVG draws the visible curves of a field as SVG paths. Zero is the
// horizontal midline and a value of L/2 reaches the top edge.
func FieldToSVG(field wave.Field, l float64, width, height int, views viz.Views) string {
	var sb strings.Builder
	header(&sb, width, height)

	if len(field) > 0 {
		if views.Ux.Visible {
			writePath(&sb, field.Ux(), l, width, height, string(views.Ux.Color))
		}
		if views.Ut.Visible {
			writePath(&sb, field.Ut(), l, width, height, string(views.Ut.Color))
		}
		if views.U.Visible {
			writePath(&sb, viz.Displacement(field, l), l, width, height, string(views.U.Color))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG dots.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	var sb strings.Builder
	header(&sb, int(float64(w)*scale), int(float64(h)*scale))
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrajectoryToSVG draws a parametric curve such as a probe's (ux, ut)
// trajectory, scaled to fit with a 10% margin.
func TrajectoryToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
