// Package agents provides the agent data model, role state machine, spawning
// and the explorer's wandering behavior.
package agents

import (
	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/pathfind"
)

// AgentID is a stable index into the simulation's agent arena.
type AgentID uint32

// Kind distinguishes the single explorer from the miners.
type Kind uint8

const (
	KindExplorer Kind = iota // Wanders and discovers resources
	KindMiner                // Travels to, collects, and returns resources
)

// String returns a human-readable name for an agent kind.
func (k Kind) String() string {
	switch k {
	case KindExplorer:
		return "explorer"
	case KindMiner:
		return "miner"
	default:
		return "unknown"
	}
}

// Agent is one simulated robot. Identity persists across role changes; only
// the transform and role mutate.
type Agent struct {
	ID       AgentID   `json:"id"`
	Kind     Kind      `json:"kind"`
	Position orb.Point `json:"position"`
	Heading  float64   `json:"heading"` // Sprite-facing angle, see steer.Heading
	Role     Role      `json:"role"`
	Speed    float64   `json:"speed"` // World units per second

	// Route is the committed path in path-following mode, nil otherwise.
	Route *pathfind.Follower `json:"-"`
}

// Apply runs a trigger through the role table and updates the agent. The role
// is left untouched on error.
func (a *Agent) Apply(t Trigger) error {
	next, err := a.Role.Next(t)
	if err != nil {
		return err
	}
	a.Role = next
	return nil
}
