// Resource spawn points and the one-time obstacle clearing pass that keeps
// every spawn reachable.
package world

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ResourceKind enumerates collectable resources.
type ResourceKind uint8

const (
	ResourceEnergy  ResourceKind = iota // Energy cells
	ResourceMineral                     // Mineral crystals
)

// String returns a human-readable name for a resource kind.
func (k ResourceKind) String() string {
	switch k {
	case ResourceEnergy:
		return "energy"
	case ResourceMineral:
		return "mineral"
	default:
		return "unknown"
	}
}

// ParseResourceKind maps a name back to its kind.
func ParseResourceKind(s string) (ResourceKind, bool) {
	switch s {
	case "energy":
		return ResourceEnergy, true
	case "mineral":
		return ResourceMineral, true
	}
	return 0, false
}

// SpawnPoint is where a resource appears at session setup.
type SpawnPoint struct {
	Kind     ResourceKind `json:"kind"`
	Position orb.Point    `json:"position"`
}

// SpawnClearRadius is the radius in cells freed around each spawn point. Two
// cells keep the whole agent footprint clear at the spawn position.
const SpawnClearRadius = 2

// ClearAroundSpawns frees the obstacle cells around every spawn point.
func ClearAroundSpawns(g *Grid, spawns []SpawnPoint) {
	for _, sp := range spawns {
		ClearAround(g, sp.Position)
	}
}

// ClearAround frees the SpawnClearRadius square around p's cell. A point
// outside the grid clears nothing; check it with Bounds.Contains first.
func ClearAround(g *Grid, p orb.Point) {
	g.ClearSquare(g.Bounds.CellAt(p), SpawnClearRadius)
}

// ScatterSpawns places count procedural spawn points uniformly inside the
// world rectangle, keeping margin units from the edges and at least
// minBaseDist from base. Kinds alternate energy, mineral, energy...
// Fewer points are returned if the area cannot fit them after repeated tries.
func ScatterSpawns(g *Grid, rng *rand.Rand, count int, base orb.Point, margin, minBaseDist float64) []SpawnPoint {
	if count <= 0 {
		return nil
	}
	rect := g.Bounds.Rect()
	minX, maxX := rect.Min.X()+margin, rect.Max.X()-margin
	minY, maxY := rect.Min.Y()+margin, rect.Max.Y()-margin
	if maxX <= minX || maxY <= minY {
		return nil
	}

	spawns := make([]SpawnPoint, 0, count)
	attempts := 0
	maxAttempts := count * 50
	for len(spawns) < count && attempts < maxAttempts {
		attempts++
		p := orb.Point{
			minX + rng.Float64()*(maxX-minX),
			minY + rng.Float64()*(maxY-minY),
		}
		if planar.Distance(p, base) < minBaseDist || !g.Bounds.Contains(p) {
			continue
		}
		kind := ResourceEnergy
		if len(spawns)%2 == 1 {
			kind = ResourceMineral
		}
		spawns = append(spawns, SpawnPoint{Kind: kind, Position: p})
	}
	return spawns
}
