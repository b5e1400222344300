package world

import "github.com/paulmach/orb"

// FootprintFactor scales the cell size into the agent collision radius used
// by Blocked. Tunable; not tied to any sprite size.
const FootprintFactor = 0.7

// Blocked reports whether an agent centered at p would collide with the grid.
// The center cell must be in bounds and free, and none of the eight footprint
// samples at ±FootprintFactor·cellSize may land in an occupied cell. Samples
// that fall outside the grid are ignored.
func (g *Grid) Blocked(p orb.Point) bool {
	center := g.Bounds.CellAt(p)
	if !g.InBounds(center) || g.cells[center.Row][center.Col] {
		return true
	}

	r := FootprintFactor * g.Bounds.CellSize
	for _, dy := range [3]float64{-r, 0, r} {
		for _, dx := range [3]float64{-r, 0, r} {
			if dx == 0 && dy == 0 {
				continue
			}
			c := g.Bounds.CellAt(orb.Point{p.X() + dx, p.Y() + dy})
			if g.InBounds(c) && g.cells[c.Row][c.Col] {
				return true
			}
		}
	}
	return false
}

// IsBlocked is the free-function form of (*Grid).Blocked.
func IsBlocked(p orb.Point, g *Grid) bool {
	return g.Blocked(p)
}
