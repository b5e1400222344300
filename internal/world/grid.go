package world

import "fmt"

// Grid holds the obstacle occupancy map. true = impassable.
type Grid struct {
	Bounds Bounds `json:"bounds"`
	Seed   int64  `json:"seed"`

	cells [][]bool // [row][col]
}

// NewGrid creates an all-passable grid covering the bounds.
func NewGrid(b Bounds) *Grid {
	rows, cols := b.Rows(), b.Cols()
	cells := make([][]bool, rows)
	for r := range cells {
		cells[r] = make([]bool, cols)
	}
	return &Grid{Bounds: b, cells: cells}
}

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return len(g.cells) }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

// Center returns the cell at the middle of the grid.
func (g *Grid) Center() Cell {
	return Cell{Col: g.Cols() / 2, Row: g.Rows() / 2}
}

// InBounds returns true if the cell lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows() && c.Col >= 0 && c.Col < g.Cols()
}

// Occupied reports whether a cell is impassable. Cells outside the grid count
// as occupied.
func (g *Grid) Occupied(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cells[c.Row][c.Col]
}

// Set marks a cell occupied or free. Out-of-range cells are ignored.
func (g *Grid) Set(c Cell, occupied bool) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row][c.Col] = occupied
}

// ClearSquare frees every in-range cell within radius (Chebyshev) of center.
func (g *Grid) ClearSquare(center Cell, radius int) {
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			g.Set(Cell{Col: center.Col + dc, Row: center.Row + dr}, false)
		}
	}
}

// OccupiedCount returns the number of impassable cells.
func (g *Grid) OccupiedCount() int {
	n := 0
	for _, row := range g.cells {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(c Cell, occupied bool)) {
	for r, row := range g.cells {
		for c, v := range row {
			fn(Cell{Col: c, Row: r}, v)
		}
	}
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, occupied=%d, seed=%d)", g.Cols(), g.Rows(), g.OccupiedCount(), g.Seed)
}
