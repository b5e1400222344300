package engine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/talgya/crystal-expedition/internal/world"
)

// ResourceID is a stable index into the simulation's resource arena.
type ResourceID uint32

// Resource is a collectable deposit. Records stay in the arena after
// collection with Exists cleared, so IDs are never reused.
type Resource struct {
	ID       ResourceID         `json:"id"`
	Kind     world.ResourceKind `json:"kind"`
	Position orb.Point          `json:"position"`
	Exists   bool               `json:"exists"`
}

// Target is the resource all active miners are currently converging on.
type Target struct {
	Resource ResourceID         `json:"resource"`
	Kind     world.ResourceKind `json:"kind"`
	Position orb.Point          `json:"position"`
}

// LiveResources returns every resource that has not been collected.
func (s *Simulation) LiveResources() []*Resource {
	var live []*Resource
	for _, r := range s.Resources {
		if r.Exists {
			live = append(live, r)
		}
	}
	return live
}

// Despawn removes a resource outside the normal collection flow. It reports
// false if the resource is unknown or already gone. A target pointing at it
// is cleaned up by the next tick's guard phase.
func (s *Simulation) Despawn(id ResourceID) bool {
	if int(id) >= len(s.Resources) || !s.Resources[id].Exists {
		return false
	}
	r := s.Resources[id]
	r.Exists = false
	s.Stats.Removed++
	s.emit(Event{
		Kind:        EventRemoved,
		ResourceID:  ptr(r.ID),
		Position:    r.Position,
		Description: r.Kind.String() + " deposit removed",
	})
	return true
}

// resourceNear returns the first live resource within tol of p.
func (s *Simulation) resourceNear(p orb.Point, tol float64) *Resource {
	for _, r := range s.Resources {
		if r.Exists && planar.Distance(r.Position, p) <= tol {
			return r
		}
	}
	return nil
}
