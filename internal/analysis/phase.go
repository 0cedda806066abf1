package analysis

import (
	"math"
	"strings"
)

// PhasePortrait is a trajectory through a 2-D state plane, such as a
// probe's (u_x, u_t) over a run.
type PhasePortrait struct {
	X, Y []float64
}

// NewPhasePortrait pairs two equally sampled series, dropping the tail of
// the longer one and any sample with a non-finite coordinate.
func NewPhasePortrait(xs, ys []float64) *PhasePortrait {
	n := min(len(xs), len(ys))
	p := &PhasePortrait{X: make([]float64, 0, n), Y: make([]float64, 0, n)}
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		p.X = append(p.X, xs[i])
		p.Y = append(p.Y, ys[i])
	}
	return p
}

func (p *PhasePortrait) Len() int { return len(p.X) }

// Bounds returns the extent of the trajectory.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.X[0], p.X[0]
	minY, maxY = p.Y[0], p.Y[0]
	for i := range p.X {
		minX, maxX = min(minX, p.X[i]), max(maxX, p.X[i])
		minY, maxY = min(minY, p.Y[i]), max(maxY, p.Y[i])
	}
	return minX, maxX, minY, maxY
}

// density glyphs, by how often a cell was visited relative to the busiest
var density = []rune(" .:*#")

// PhasePortraitToASCII renders the portrait as a width x height density
// map with a 10% margin. Axes are drawn where zero is in view.
func PhasePortraitToASCII(p *PhasePortrait, width, height int) string {
	if p == nil || p.Len() == 0 || width < 1 || height < 1 {
		return ""
	}

	minX, maxX, minY, maxY := p.Bounds()
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	minX -= 0.1 * spanX
	minY -= 0.1 * spanY
	spanX *= 1.2
	spanY *= 1.2

	col := func(x float64) int { return int((x - minX) / spanX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/spanY*float64(height-1)) }

	hits := make([]int, width*height)
	busiest := 0
	for i := range p.X {
		c, r := col(p.X[i]), row(p.Y[i])
		if c < 0 || c >= width || r < 0 || r >= height {
			continue
		}
		hits[r*width+c]++
		busiest = max(busiest, hits[r*width+c])
	}

	zeroCol, zeroRow := -1, -1
	if minX <= 0 && 0 <= minX+spanX {
		zeroCol = col(0)
	}
	if minY <= 0 && 0 <= minY+spanY {
		zeroRow = row(0)
	}

	var sb strings.Builder
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			h := hits[r*width+c]
			switch {
			case h > 0:
				level := 1 + (h-1)*(len(density)-2)/max(1, busiest-1)
				if busiest == 1 {
					level = len(density) - 1
				}
				sb.WriteRune(density[level])
			case r == zeroRow && c == zeroCol:
				sb.WriteRune('┼')
			case r == zeroRow:
				sb.WriteRune('─')
			case c == zeroCol:
				sb.WriteRune('│')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
