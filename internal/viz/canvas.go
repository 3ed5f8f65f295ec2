package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/world"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Ink tags a cell with what was last drawn into it, for coloring.
type Ink uint8

const (
	InkNone Ink = iota
	InkWater
	InkBody
	InkWall
	InkPiston
)

// Canvas is a grid of braille cells. Each cell holds 2x4 sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Inks          [][]Ink
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Inks:   make([][]Ink, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Inks[i] = make([]Ink, w)
	}
	c.Clear()
	return c
}

// Set lights a sub-pixel. The canvas is (Width*2) x (Height*4) sub-pixels;
// points outside are ignored.
func (c *Canvas) Set(x, y int, ink Ink) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Inks[row][col] = ink
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Inks[i][j] = InkNone
		}
	}
}

// Line draws with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, ink Ink) {
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
		c.Set(x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			break
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

// Viewport maps box coordinates onto the canvas sub-pixels. The box origin
// is the top-left corner and y grows downward toward the piston.
type Viewport struct {
	Width, Height float64
	cols, rows    int
}

func (c *Canvas) Viewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, cols: c.Width*2 - 1, rows: c.Height*4 - 1}
}

func (v Viewport) Map(x, y float64) (int, int) {
	return int(x / v.Width * float64(v.cols)), int(y / v.Height * float64(v.rows))
}

// DrawFrame draws the box outline, the piston when active, and every atom.
func (c *Canvas) DrawFrame(f world.Frame) {
	c.Clear()
	v := c.Viewport(f.Width, f.Height)

	left, top := v.Map(0, 0)
	right, bottom := v.Map(f.Width, f.BoxHeight)
	c.Line(left, top, right, top, InkWall)
	c.Line(left, top, left, bottom, InkWall)
	c.Line(right, top, right, bottom, InkWall)
	if f.MovingWall {
		c.Line(left, bottom, right, bottom, InkPiston)
	} else {
		c.Line(left, bottom, right, bottom, InkWall)
	}

	for _, a := range f.Atoms {
		x, y := v.Map(a.Position.X, a.Position.Y)
		ink := InkWater
		if a.Species == atom.Body {
			ink = InkBody
		}
		c.Set(x, y, ink)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors each cell by its ink using the theme.
func (c *Canvas) Render(t Theme) string {
	styles := map[Ink]lipgloss.Style{
		InkNone:   lipgloss.NewStyle().Foreground(t.Muted),
		InkWater:  lipgloss.NewStyle().Foreground(t.Water),
		InkBody:   lipgloss.NewStyle().Foreground(t.Body),
		InkWall:   lipgloss.NewStyle().Foreground(t.Wall),
		InkPiston: lipgloss.NewStyle().Foreground(t.Piston).Bold(true),
	}

	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Inks[i][j] == c.Inks[i][start] {
				continue
			}
			b.WriteString(styles[c.Inks[i][start]].Render(string(row[start:j])))
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
