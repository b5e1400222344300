package pathfind

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/talgya/crystal-expedition/internal/steer"
	"github.com/talgya/crystal-expedition/internal/world"
)

// Follower walks an agent along a precomputed route. It never replans: if the
// grid changes mid-route the steering fallback is all the agent gets.
type Follower struct {
	Path   orb.LineString
	Radius float64 // Waypoint counts as reached within this distance

	next int
}

// NewFollower creates a follower that advances once within radius of each
// waypoint.
func NewFollower(path orb.LineString, radius float64) *Follower {
	return &Follower{Path: path, Radius: radius}
}

// Done reports whether every waypoint has been reached.
func (f *Follower) Done() bool {
	return f == nil || f.next >= len(f.Path)
}

// Next returns the waypoint currently steered toward.
func (f *Follower) Next() (orb.Point, bool) {
	if f.Done() {
		return orb.Point{}, false
	}
	return f.Path[f.next], true
}

// Remaining returns the number of waypoints not yet reached.
func (f *Follower) Remaining() int {
	if f.Done() {
		return 0
	}
	return len(f.Path) - f.next
}

// Step skips every waypoint already within Radius, then steers toward the
// next one. A waypoint the agent cannot move toward at all is skipped. ok is
// false once the route is exhausted; the position is then returned unchanged.
func (f *Follower) Step(pos orb.Point, speed, dt float64, g *world.Grid) (next orb.Point, heading float64, ok bool) {
	for !f.Done() && planar.Distance(pos, f.Path[f.next]) <= f.Radius {
		f.next++
	}
	wp, ok := f.Next()
	if !ok {
		return pos, 0, false
	}

	// Do not step past the waypoint.
	if d := planar.Distance(pos, wp); speed*dt > d && dt > 0 {
		speed = d / dt
	}
	next, heading = steer.Step(pos, wp, speed, dt, g)
	if next == pos && speed*dt > 0 {
		f.next++
	}
	return next, heading, true
}
