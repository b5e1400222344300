// Package explore tracks which parts of the world the explorer has seen.
package explore

import (
	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/world"
)

// SightRadius is the number of cells marked on each side of the agent's cell.
const SightRadius = 2

// Zones is an additive seen-cell memory. Cells never revert to unseen.
type Zones struct {
	Bounds world.Bounds

	seen  [][]bool // [row][col]
	count int
}

// NewZones creates an all-unseen zone map. Its cell size is independent of the
// obstacle grid; only the centered coordinate mapping is shared.
func NewZones(b world.Bounds) *Zones {
	seen := make([][]bool, b.Rows())
	for r := range seen {
		seen[r] = make([]bool, b.Cols())
	}
	return &Zones{Bounds: b, seen: seen}
}

// MarkSeen marks the (2·SightRadius+1)² block around p's cell. Cells outside
// the map are skipped.
func (z *Zones) MarkSeen(p orb.Point) {
	center := z.Bounds.CellAt(p)
	for dr := -SightRadius; dr <= SightRadius; dr++ {
		for dc := -SightRadius; dc <= SightRadius; dc++ {
			c := world.Cell{Col: center.Col + dc, Row: center.Row + dr}
			if !z.Bounds.InGrid(c) || z.seen[c.Row][c.Col] {
				continue
			}
			z.seen[c.Row][c.Col] = true
			z.count++
		}
	}
}

// IsSeen reports whether the cell containing p has been seen.
func (z *Zones) IsSeen(p orb.Point) bool {
	return z.SeenCell(z.Bounds.CellAt(p))
}

// SeenCell reports whether a cell has been seen. Out-of-range cells never are.
func (z *Zones) SeenCell(c world.Cell) bool {
	if !z.Bounds.InGrid(c) {
		return false
	}
	return z.seen[c.Row][c.Col]
}

// Count returns the number of seen cells.
func (z *Zones) Count() int { return z.count }

// Coverage returns the seen fraction of the map, 0.0–1.0.
func (z *Zones) Coverage() float64 {
	total := z.Bounds.Rows() * z.Bounds.Cols()
	if total == 0 {
		return 0
	}
	return float64(z.count) / float64(total)
}

// EachSeen calls fn for every seen cell in row-major order.
func (z *Zones) EachSeen(fn func(c world.Cell)) {
	for r, row := range z.seen {
		for c, v := range row {
			if v {
				fn(world.Cell{Col: c, Row: r})
			}
		}
	}
}
