// Package world provides the obstacle grid, its generation, and spatial queries.
// World coordinates are centered on the origin; grid cells are indexed [row][col]
// with row 0 at the bottom edge (y = -height/2).
package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// MinGridCells is the smallest grid side accepted. The central safe block is
// this many cells wide.
const MinGridCells = 5

// ErrInvalidBounds is returned for non-positive or undersized world dimensions.
var ErrInvalidBounds = errors.New("invalid world bounds")

// Cell addresses one grid cell. It may lie outside the grid.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Bounds describes a world rectangle centered on the origin and the cell size
// used to discretize it. Immutable once built.
type Bounds struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cell_size"`
}

// NewBounds validates the dimensions and returns the bounds.
func NewBounds(width, height, cellSize float64) (Bounds, error) {
	b := Bounds{Width: width, Height: height, CellSize: cellSize}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate rejects values that would produce an empty or undersized grid.
func (b Bounds) Validate() error {
	if !finitePositive(b.Width) || !finitePositive(b.Height) || !finitePositive(b.CellSize) {
		return fmt.Errorf("%w: width=%g height=%g cell_size=%g", ErrInvalidBounds, b.Width, b.Height, b.CellSize)
	}
	if b.Cols() < MinGridCells || b.Rows() < MinGridCells {
		return fmt.Errorf("%w: %dx%d cells, need at least %dx%d",
			ErrInvalidBounds, b.Cols(), b.Rows(), MinGridCells, MinGridCells)
	}
	return nil
}

func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

// Cols returns floor(width / cellSize).
func (b Bounds) Cols() int {
	return int(math.Floor(b.Width / b.CellSize))
}

// Rows returns floor(height / cellSize).
func (b Bounds) Rows() int {
	return int(math.Floor(b.Height / b.CellSize))
}

// CellAt maps a world position to the cell containing it. Positions left of or
// below the world map to negative indices.
func (b Bounds) CellAt(p orb.Point) Cell {
	return Cell{
		Col: int(math.Floor((p.X() + b.Width/2) / b.CellSize)),
		Row: int(math.Floor((p.Y() + b.Height/2) / b.CellSize)),
	}
}

// CellCenter returns the world position at the center of a cell.
func (b Bounds) CellCenter(c Cell) orb.Point {
	return orb.Point{
		float64(c.Col)*b.CellSize - b.Width/2 + b.CellSize/2,
		float64(c.Row)*b.CellSize - b.Height/2 + b.CellSize/2,
	}
}

// CellBound returns the world rectangle covered by a cell.
func (b Bounds) CellBound(c Cell) orb.Bound {
	lo := orb.Point{
		float64(c.Col)*b.CellSize - b.Width/2,
		float64(c.Row)*b.CellSize - b.Height/2,
	}
	return orb.Bound{Min: lo, Max: orb.Point{lo[0] + b.CellSize, lo[1] + b.CellSize}}
}

// InGrid reports whether the cell lies inside the cols × rows grid.
func (b Bounds) InGrid(c Cell) bool {
	return c.Col >= 0 && c.Row >= 0 && c.Col < b.Cols() && c.Row < b.Rows()
}

// Contains reports whether p falls in a cell of the grid.
func (b Bounds) Contains(p orb.Point) bool {
	return b.InGrid(b.CellAt(p))
}

// Rect returns the nominal world rectangle. The grid may cover slightly less
// when the dimensions are not multiples of the cell size.
func (b Bounds) Rect() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-b.Width / 2, -b.Height / 2},
		Max: orb.Point{b.Width / 2, b.Height / 2},
	}
}

// String returns a summary of the bounds.
func (b Bounds) String() string {
	return fmt.Sprintf("Bounds(%gx%g, cell=%g, grid=%dx%d)", b.Width, b.Height, b.CellSize, b.Cols(), b.Rows())
}
