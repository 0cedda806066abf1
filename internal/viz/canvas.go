package viz

import (
	"math"
	"strings"
)

// blank is the empty braille cell. A cell's dots are the low eight bits
// added to it, numbered
//
//	0x01 0x08
//	0x02 0x10
//	0x04 0x20
//	0x40 0x80
const blank = rune(0x2800)

var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a cols x rows grid of braille cells, each 2 dots wide and
// 4 dots tall.
type Canvas struct {
	cols, rows int
	cells      []uint8
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.cols * 2, c.rows * 4 }

// index locates the cell holding dot (x, y) and the dot's bit.
func (c *Canvas) index(x, y int) (int, uint8, bool) {
	w, h := c.Dots()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, 0, false
	}
	return (y/4)*c.cols + x/2, dotBits[y%4][x%2], true
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.index(x, y); ok {
		c.cells[i] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if i, bit, ok := c.index(x, y); ok {
		c.cells[i] &^= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	i, bit, ok := c.index(x, y)
	return ok && c.cells[i]&bit != 0
}

// Cell returns the braille rune at cell (col, row).
func (c *Canvas) Cell(col, row int) rune {
	return blank + rune(c.cells[row*c.cols+col])
}

// Empty reports whether no dot of cell (col, row) is on.
func (c *Canvas) Empty(col, row int) bool {
	return c.cells[row*c.cols+col] == 0
}

// Merge turns on every dot that is on in o. Both canvases must have the
// same size.
func (c *Canvas) Merge(o *Canvas) {
	for i := range c.cells {
		c.cells[i] |= o.cells[i]
	}
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// DrawLine sets the dots of the segment from (x0, y0) to (x1, y1), one per
// step along its longer axis.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		c.Set(x0, y0)
		return
	}
	for s := 0; s <= steps; s++ {
		f := float64(s) / float64(steps)
		c.Set(x0+int(math.Round(f*float64(dx))), y0+int(math.Round(f*float64(dy))))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for r := 0; r < c.rows; r++ {
		for col := 0; col < c.cols; col++ {
			b.WriteRune(c.Cell(col, r))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
