package board

import (
	"image/color"
	"math/rand/v2"
)

// Color is a packed 0xRRGGBB value as carried on the wire.
type Color uint32

// GarbageColor fills injected garbage rows.
const GarbageColor Color = 0x6B6B6B

func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
}

// Lerp blends c towards to; frac is clamped to [0, 1].
func (c Color) Lerp(to Color, frac float64) Color {
	frac = min(max(frac, 0), 1)
	mix := func(shift uint) Color {
		a := float64((c >> shift) & 0xFF)
		b := float64((to >> shift) & 0xFF)
		return Color(a+(b-a)*frac+0.5) << shift
	}
	return mix(16) | mix(8) | mix(0)
}

// Point is a grid coordinate. Row 0 is the top of the grid.
type Point struct {
	X, Y int
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

type Cell struct {
	Filled bool
	Color  Color
}

// HoleFunc picks the empty column of a garbage row.
type HoleFunc func(width int) int

// Grid is a fixed-size cell matrix. Its dimensions never change.
type Grid struct {
	width  int
	height int
	rows   [][]Cell
	hole   HoleFunc
}

// NewGrid creates an empty width x height grid. A nil hole function picks
// garbage holes uniformly at random.
func NewGrid(width, height int, hole HoleFunc) *Grid {
	if width <= 0 || height <= 0 {
		panic("grid dimensions must be positive")
	}
	if hole == nil {
		hole = rand.IntN
	}

	rows := make([][]Cell, height)
	for i := range rows {
		rows[i] = make([]Cell, width)
	}

	return &Grid{
		width:  width,
		height: height,
		rows:   rows,
		hole:   hole,
	}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Cell returns the cell at (x, y).
func (g *Grid) Cell(x, y int) (Cell, error) {
	if x < 0 || x >= g.width {
		return Cell{}, &OutOfRangeError{What: "column", Value: x, Limit: g.width}
	}
	if y < 0 || y >= g.height {
		return Cell{}, &OutOfRangeError{What: "row", Value: y, Limit: g.height}
	}
	return g.rows[y][x], nil
}

// Occupied reports whether (x, y) is filled. Coordinates outside the grid
// count as occupied.
func (g *Grid) Occupied(x, y int) bool {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return true
	}
	return g.rows[y][x].Filled
}

// Rows returns a copy of the cell matrix.
func (g *Grid) Rows() [][]Cell {
	out := make([][]Cell, g.height)
	for i, row := range g.rows {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

// ClearLine removes row and shifts every row above it down by one. The top
// row becomes empty.
func (g *Grid) ClearLine(row int) error {
	if row < 0 || row >= g.height {
		return &OutOfRangeError{What: "row", Value: row, Limit: g.height}
	}

	cleared := g.rows[row]
	copy(g.rows[1:row+1], g.rows[:row])
	clear(cleared)
	g.rows[0] = cleared
	return nil
}

// AddLine shifts every row up by one, dropping the top row, and fills the
// bottom row with garbage that has a single hole.
func (g *Grid) AddLine() {
	dropped := g.rows[0]
	copy(g.rows, g.rows[1:])

	hole := g.hole(g.width)
	if hole < 0 || hole >= g.width {
		hole = 0
	}
	for x := range dropped {
		dropped[x] = Cell{Filled: x != hole, Color: GarbageColor}
	}
	dropped[hole] = Cell{}
	g.rows[g.height-1] = dropped
}

func (g *Grid) set(p Point, c Color) {
	g.rows[p.Y][p.X] = Cell{Filled: true, Color: c}
}
