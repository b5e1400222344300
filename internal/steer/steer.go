package steer

import (
	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/world"
)

// FallbackAngles are tried in order when the direct step is blocked:
// smallest deviation first, positive before negative.
var FallbackAngles = [...]float64{0.3, -0.3, 0.6, -0.6, 1.0, -1.0, 1.5, -1.5, 2.0, -2.0, 2.5, -2.5}

// Step advances current toward target by speed·dt, deflecting around
// obstacles. It returns the new position and heading.
//
// A zero-length direction leaves the agent in place with heading 0. When the
// straight step and every fallback are blocked the agent stays put but turns
// to face the target.
func Step(current, target orb.Point, speed, dt float64, g *world.Grid) (orb.Point, float64) {
	dir, ok := Normalize(sub(target, current))
	if !ok {
		return current, 0
	}
	dist := speed * dt

	candidate := add(current, scale(dir, dist))
	if !g.Blocked(candidate) {
		return candidate, Heading(dir)
	}

	for _, angle := range FallbackAngles {
		alt := Rotate(dir, angle)
		candidate = add(current, scale(alt, dist))
		if !g.Blocked(candidate) {
			return candidate, Heading(alt)
		}
	}

	return current, Heading(dir)
}
