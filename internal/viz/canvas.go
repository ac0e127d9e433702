package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells addressed in dots: (Width*2) by
// (Height*4), with y growing downwards.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = []rune(strings.Repeat(string(rune(blank)), w))
	}
	return c
}

// Set marks a dot; coordinates outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

// DrawLine joins two dots (Bresenham).
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Phase draws the curve (xs[i], ys[i]) scaled to fill a w by h cell
// canvas. Non-finite points break the curve.
func Phase(xs, ys []float64, w, h int) *Canvas {
	c := NewCanvas(w, h)
	n := min(len(xs), len(ys))
	xlo, xhi := bounds(xs[:n])
	ylo, yhi := bounds(ys[:n])
	dotsX, dotsY := float64(2*w-1), float64(4*h-1)

	px := func(v float64) int { return int(math.Round((v - xlo) / (xhi - xlo) * dotsX)) }
	py := func(v float64) int { return int(math.Round((yhi - v) / (yhi - ylo) * dotsY)) }

	prev := false
	var x0, y0 int
	for i := 0; i < n; i++ {
		if !finite(xs[i]) || !finite(ys[i]) {
			prev = false
			continue
		}
		x1, y1 := px(xs[i]), py(ys[i])
		if prev {
			c.DrawLine(x0, y0, x1, y1)
		} else {
			c.Set(x1, y1)
		}
		x0, y0, prev = x1, y1, true
	}
	return c
}

// bounds returns the finite range of vs, widened when it is empty or flat.
func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if finite(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	switch {
	case lo > hi:
		return -1, 1
	case lo == hi:
		return lo - 1, hi + 1
	}
	return lo, hi
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
