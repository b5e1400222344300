package engine

import (
	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/agents"
)

// EventKind categorizes lifecycle events the presentation layer mirrors.
type EventKind string

const (
	EventSpawn      EventKind = "spawn"      // Resource created at setup
	EventDiscovery  EventKind = "discovery"  // Explorer found a resource; it is now the target
	EventDispatch   EventKind = "dispatch"   // Miner went Idle → Active
	EventCollecting EventKind = "collecting" // Collection timer armed
	EventConsumed   EventKind = "consumed"   // Resource collected and destroyed
	EventRemoved    EventKind = "removed"    // Resource despawned outside collection
	EventRecall     EventKind = "recall"     // Miner went Active → Returning
	EventDock       EventKind = "dock"       // Miner went Returning → Idle
	EventAbandon    EventKind = "abandon"    // Target dropped because its resource vanished
)

// Event is a notable occurrence in the simulation.
type Event struct {
	Tick        uint64          `json:"tick"`
	Kind        EventKind       `json:"kind"`
	AgentID     *agents.AgentID `json:"agent_id,omitempty"`
	ResourceID  *ResourceID     `json:"resource_id,omitempty"`
	Position    orb.Point       `json:"position"`
	Description string          `json:"description"`
}

// emit stamps the event with the current tick and queues it for the caller.
func (s *Simulation) emit(e Event) {
	e.Tick = s.LastTick
	s.pending = append(s.pending, e)
}

func ptr[T any](v T) *T { return &v }
