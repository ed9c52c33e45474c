package viz

import (
	"math"
	"strings"
)

// braille dot bits, indexed [row][col] within a 2x4 cell
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille grid addressed in world coordinates. The visible square
// spans [-radius, radius] on both axes with y pointing up.
type Canvas struct {
	cols, rows int
	radius     float64
	cells      [][]rune
}

func NewCanvas(cols, rows int, radius float64) *Canvas {
	c := &Canvas{cols: cols, rows: rows, radius: radius, cells: make([][]rune, rows)}
	for i := range c.cells {
		c.cells[i] = make([]rune, cols)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = blank
		}
	}
}

// Dots returns the sub-cell resolution of the canvas.
func (c *Canvas) Dots() (w, h int) { return c.cols * 2, c.rows * 4 }

// Project maps a world point to dot coordinates. ok is false when the point
// falls outside the visible square or is not finite.
func (c *Canvas) Project(x, y float64) (px, py int, ok bool) {
	if c.radius <= 0 || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	w, h := c.Dots()
	fx := (x/c.radius + 1) / 2 * float64(w)
	fy := (1 - y/c.radius) / 2 * float64(h)
	if fx < 0 || fy < 0 || fx >= float64(w) || fy >= float64(h) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Set lights the dot at (px, py). Out of range dots are ignored.
func (c *Canvas) Set(px, py int) {
	if px < 0 || py < 0 {
		return
	}
	col, row := px/2, py/4
	if col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row][col] |= dotBits[py%4][px%2]
}

// Plot lights the dot under world point (x, y) and reports whether it was
// visible.
func (c *Canvas) Plot(x, y float64) bool {
	px, py, ok := c.Project(x, y)
	if ok {
		c.Set(px, py)
	}
	return ok
}

// Mark draws a 2x2 block so a body stands out from its trail.
func (c *Canvas) Mark(x, y float64) bool {
	px, py, ok := c.Project(x, y)
	if !ok {
		return false
	}
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			c.Set(px+dx, py+dy)
		}
	}
	return true
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
