// Package pathfind computes committed grid routes with A* and follows them.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/world"
)

// Heuristic estimates the remaining cost between two cells.
type Heuristic func(a, b world.Cell) float64

// Manhattan is |dc| + |dr|. It overestimates under unit-cost diagonal moves,
// so routes are not always shortest and tend to favor diagonals early.
func Manhattan(a, b world.Cell) float64 {
	return math.Abs(float64(a.Col-b.Col)) + math.Abs(float64(a.Row-b.Row))
}

// Octile is max(|dc|, |dr|), the exact remaining cost when every move,
// diagonal or not, costs 1. Admissible, so routes are shortest.
func Octile(a, b world.Cell) float64 {
	return math.Max(math.Abs(float64(a.Col-b.Col)), math.Abs(float64(a.Row-b.Row)))
}

// HeuristicByName resolves a heuristic from its config name.
func HeuristicByName(name string) (Heuristic, bool) {
	switch name {
	case "", "manhattan":
		return Manhattan, true
	case "octile":
		return Octile, true
	}
	return nil, false
}

// neighborOffsets are the 8 grid moves, each costing 1.
var neighborOffsets = [8]world.Cell{
	{Col: 1, Row: 0}, {Col: -1, Row: 0}, {Col: 0, Row: 1}, {Col: 0, Row: -1},
	{Col: 1, Row: 1}, {Col: 1, Row: -1}, {Col: -1, Row: 1}, {Col: -1, Row: -1},
}

// FindPath searches with the Manhattan heuristic.
func FindPath(start, goal orb.Point, g *world.Grid) (orb.LineString, bool) {
	return Search(start, goal, g, Manhattan)
}

// Search runs A* over the 8-connected grid from the cell containing start to
// the cell containing goal. The returned waypoints are cell centers from start
// to goal inclusive. It reports false when either end is out of bounds or
// occupied, or when no route exists.
func Search(start, goal orb.Point, g *world.Grid, h Heuristic) (orb.LineString, bool) {
	if h == nil {
		h = Manhattan
	}
	b := g.Bounds
	from, to := b.CellAt(start), b.CellAt(goal)
	if g.Occupied(from) || g.Occupied(to) {
		return nil, false
	}

	cols := g.Cols()
	index := func(c world.Cell) int { return c.Row*cols + c.Col }

	size := cols * g.Rows()
	cost := make([]int, size)
	parent := make([]int, size)
	closed := make([]bool, size)
	for i := range cost {
		cost[i] = math.MaxInt
		parent[i] = -1
	}

	var seq uint64
	open := &openSet{}
	cost[index(from)] = 0
	heap.Push(open, &node{cell: from, g: 0, f: h(from, to), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		ci := index(cur.cell)
		if closed[ci] {
			continue
		}
		closed[ci] = true

		if cur.cell == to {
			return reconstruct(b, parent, ci, cols), true
		}

		for _, off := range neighborOffsets {
			next := world.Cell{Col: cur.cell.Col + off.Col, Row: cur.cell.Row + off.Row}
			if g.Occupied(next) {
				continue
			}
			ni := index(next)
			if closed[ni] {
				continue
			}
			ng := cur.g + 1
			if ng >= cost[ni] {
				continue
			}
			cost[ni] = ng
			parent[ni] = ci
			seq++
			heap.Push(open, &node{cell: next, g: ng, f: float64(ng) + h(next, to), seq: seq})
		}
	}

	return nil, false
}

func reconstruct(b world.Bounds, parent []int, last, cols int) orb.LineString {
	var cells []world.Cell
	for i := last; i != -1; i = parent[i] {
		cells = append(cells, world.Cell{Col: i % cols, Row: i / cols})
	}

	path := make(orb.LineString, len(cells))
	for i, c := range cells {
		path[len(cells)-1-i] = b.CellCenter(c)
	}
	return path
}

// Cells maps each waypoint back to its grid cell.
func Cells(path orb.LineString, b world.Bounds) []world.Cell {
	cells := make([]world.Cell, len(path))
	for i, p := range path {
		cells[i] = b.CellAt(p)
	}
	return cells
}

type node struct {
	cell world.Cell
	g    int
	f    float64
	seq  uint64
}

// openSet orders by f, then by push order.
type openSet []*node

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *openSet) Push(x any) { *s = append(*s, x.(*node)) }

func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}
