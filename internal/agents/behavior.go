// Miner role state machine.
// Idle → Active → (collecting while the timer runs) → Returning → Idle.
package agents

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when a trigger does not apply to a role.
var ErrIllegalTransition = errors.New("illegal role transition")

// Role is a miner's dispatch state. The explorer stays Idle.
type Role uint8

const (
	RoleIdle      Role = iota // Parked at base, available for dispatch
	RoleActive                // Traveling to or waiting at the shared target
	RoleReturning             // Heading back to base
)

// String returns a human-readable name for a role.
func (r Role) String() string {
	switch r {
	case RoleIdle:
		return "idle"
	case RoleActive:
		return "active"
	case RoleReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// Trigger is an event that moves a miner between roles.
type Trigger uint8

const (
	TriggerDispatch Trigger = iota // A target was discovered
	TriggerRecall                  // Collection finished or the target vanished
	TriggerDock                    // Arrived back at base
)

// String returns a human-readable name for a trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerDispatch:
		return "dispatch"
	case TriggerRecall:
		return "recall"
	case TriggerDock:
		return "dock"
	default:
		return "unknown"
	}
}

// transitions is the complete table; missing entries are illegal.
var transitions = map[Role]map[Trigger]Role{
	RoleIdle: {
		TriggerDispatch: RoleActive,
	},
	RoleActive: {
		TriggerRecall: RoleReturning,
	},
	RoleReturning: {
		TriggerRecall: RoleReturning,
		TriggerDock:   RoleIdle,
	},
}

// Next returns the role reached by applying t.
func (r Role) Next(t Trigger) (Role, error) {
	if next, ok := transitions[r][t]; ok {
		return next, nil
	}
	return r, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, t, r)
}

// Accepts reports whether t is legal from r.
func (r Role) Accepts(t Trigger) bool {
	_, ok := transitions[r][t]
	return ok
}
