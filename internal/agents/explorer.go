// Explorer movement: a random walk that re-rolls its heading on a timer and
// turns back near the world edge.
package agents

import (
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/steer"
	"github.com/talgya/crystal-expedition/internal/world"
)

// ExplorerMode tells whether the explorer is moving.
type ExplorerMode uint8

const (
	ModeWandering ExplorerMode = iota
	ModePaused                 // A resource is being pursued
)

// String returns a human-readable name for an explorer mode.
func (m ExplorerMode) String() string {
	if m == ModePaused {
		return "paused"
	}
	return "wandering"
}

// WanderConfig tunes the explorer's random walk.
type WanderConfig struct {
	TurnInterval float64 // Seconds between heading re-rolls
	EdgeMargin   float64 // Distance from the world edge that triggers a bounce
}

// DefaultWanderConfig matches the 2 s re-roll and 50-unit edge band.
func DefaultWanderConfig() WanderConfig {
	return WanderConfig{TurnInterval: 2.0, EdgeMargin: 50}
}

// Wanderer drives the explorer.
type Wanderer struct {
	Direction       orb.Point // Unit vector
	TimeUntilChange float64

	cfg WanderConfig
	rng *rand.Rand
}

// NewWanderer starts heading +x with a full re-roll interval ahead.
func NewWanderer(cfg WanderConfig, seed int64) *Wanderer {
	return &Wanderer{
		Direction:       orb.Point{1, 0},
		TimeUntilChange: cfg.TurnInterval,
		cfg:             cfg,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// Advance moves the explorer one tick.
func (w *Wanderer) Advance(a *Agent, g *world.Grid, dt float64) {
	w.TimeUntilChange -= dt
	if w.TimeUntilChange <= 0 {
		w.reroll()
	}

	w.bounce(a.Position, g.Bounds.Rect())

	target := orb.Point{a.Position.X() + w.Direction.X(), a.Position.Y() + w.Direction.Y()}
	next, heading := steer.Step(a.Position, target, a.Speed, dt, g)

	// Wedged in: try a fresh heading next tick instead of waiting out the timer.
	if next == a.Position && a.Speed*dt > 0 {
		w.reroll()
	}

	a.Position = next
	a.Heading = heading
}

// bounce reflects the direction component that points out of the inner band.
func (w *Wanderer) bounce(p orb.Point, rect orb.Bound) {
	m := w.cfg.EdgeMargin
	if (p.X() > rect.Max.X()-m && w.Direction.X() > 0) || (p.X() < rect.Min.X()+m && w.Direction.X() < 0) {
		w.Direction[0] = -w.Direction[0]
	}
	if (p.Y() > rect.Max.Y()-m && w.Direction.Y() > 0) || (p.Y() < rect.Min.Y()+m && w.Direction.Y() < 0) {
		w.Direction[1] = -w.Direction[1]
	}
}

func (w *Wanderer) reroll() {
	for {
		d, ok := steer.Normalize(orb.Point{w.rng.Float64()*2 - 1, w.rng.Float64()*2 - 1})
		if ok {
			w.Direction = d
			break
		}
	}
	w.TimeUntilChange = w.cfg.TurnInterval
}
