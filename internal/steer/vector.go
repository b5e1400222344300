// Package steer moves one agent per tick toward a target with local obstacle
// avoidance, plus the small amount of 2D vector math it needs.
package steer

import (
	"math"

	"github.com/paulmach/orb"
)

// Rotate turns v counter-clockwise by theta radians.
func Rotate(v orb.Point, theta float64) orb.Point {
	sin, cos := math.Sincos(theta)
	return orb.Point{
		v.X()*cos - v.Y()*sin,
		v.X()*sin + v.Y()*cos,
	}
}

// Normalize returns the unit vector of v, or false if v has zero length.
func Normalize(v orb.Point) (orb.Point, bool) {
	l := math.Hypot(v.X(), v.Y())
	if l == 0 {
		return orb.Point{}, false
	}
	return orb.Point{v.X() / l, v.Y() / l}, true
}

// Heading converts a movement direction into the sprite-facing angle
// atan2(-y, x). The sign convention matches the renderer's rotation axis.
func Heading(dir orb.Point) float64 {
	return math.Atan2(-dir.Y(), dir.X())
}

func add(a, b orb.Point) orb.Point { return orb.Point{a[0] + b[0], a[1] + b[1]} }

func sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }

func scale(v orb.Point, s float64) orb.Point { return orb.Point{v[0] * s, v[1] * s} }
