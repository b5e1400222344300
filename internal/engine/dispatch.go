// Resource dispatch. One target at a time, served by every available miner.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/pathfind"
	"github.com/talgya/crystal-expedition/internal/steer"
)

// guardTarget drops a target whose resource has vanished and sends every
// non-idle miner home instead of leaving them stalled.
func (s *Simulation) guardTarget(_ float64) {
	if s.Target == nil {
		return
	}
	if s.targetResource() != nil {
		return
	}

	t := s.Target
	s.Stats.Abandoned++
	s.emit(Event{
		Kind:        EventAbandon,
		ResourceID:  ptr(t.Resource),
		Position:    t.Position,
		Description: t.Kind.String() + " target vanished, recalling miners",
	})
	slog.Info("target abandoned", "tick", s.LastTick, "resource", t.Resource)

	s.clearTarget()
	s.recallMiners()
}

// discover picks the nearest live resource within the discovery radius of the
// explorer and dispatches every idle miner to it.
func (s *Simulation) discover(_ float64) {
	if s.Target != nil || !s.anyMinerIn(agents.RoleIdle) {
		return
	}

	explorer := s.ExplorerAgent()
	var best *Resource
	bestDist := 0.0
	for _, r := range s.Resources {
		if !r.Exists {
			continue
		}
		d := planar.Distance(explorer.Position, r.Position)
		if d >= s.Params.DiscoveryRadius {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = r, d
		}
	}
	if best == nil {
		return
	}

	s.Target = &Target{Resource: best.ID, Kind: best.Kind, Position: best.Position}
	s.ExplorerMode = agents.ModePaused
	s.Stats.Discovered++
	s.emit(Event{
		Kind:        EventDiscovery,
		AgentID:     ptr(explorer.ID),
		ResourceID:  ptr(best.ID),
		Position:    best.Position,
		Description: fmt.Sprintf("%s deposit discovered %.1f units from the explorer", best.Kind, bestDist),
	})

	dispatched := 0
	for _, m := range s.MinerAgents() {
		if m.Role != agents.RoleIdle {
			continue
		}
		if err := m.Apply(agents.TriggerDispatch); err != nil {
			slog.Error("dispatch failed", "agent", m.ID, "error", err)
			continue
		}
		dispatched++
		s.planRoute(m, best.Position)
		s.emit(Event{
			Kind:        EventDispatch,
			AgentID:     ptr(m.ID),
			ResourceID:  ptr(best.ID),
			Position:    m.Position,
			Description: fmt.Sprintf("miner %d dispatched", m.ID),
		})
	}

	slog.Info("resource discovered",
		"tick", s.LastTick,
		"resource", best.ID,
		"kind", best.Kind.String(),
		"distance", fmt.Sprintf("%.1f", bestDist),
		"dispatched", dispatched,
	)
}

// move advances the explorer and every non-idle miner.
func (s *Simulation) move(dt float64) {
	if s.Target == nil {
		s.ExplorerMode = agents.ModeWandering
		s.Wanderer.Advance(s.ExplorerAgent(), s.Grid, dt)
	} else {
		s.ExplorerMode = agents.ModePaused
	}

	for _, m := range s.MinerAgents() {
		switch m.Role {
		case agents.RoleActive:
			if s.Target == nil || s.arrived(m) {
				continue
			}
			s.travel(m, s.Target.Position, dt)

		case agents.RoleReturning:
			s.travel(m, s.Base, dt)
			if planar.Distance(m.Position, s.Base) > s.Params.BaseRadius {
				continue
			}
			if err := m.Apply(agents.TriggerDock); err != nil {
				slog.Error("dock failed", "agent", m.ID, "error", err)
				continue
			}
			m.Route = nil
			s.emit(Event{
				Kind:        EventDock,
				AgentID:     ptr(m.ID),
				Position:    m.Position,
				Description: fmt.Sprintf("miner %d docked at base", m.ID),
			})
			slog.Debug("miner docked", "tick", s.LastTick, "agent", m.ID)
		}
	}
}

// collect arms the timer on the first arrival and completes the cycle when it
// expires.
func (s *Simulation) collect(dt float64) {
	if s.Target == nil {
		return
	}

	if !s.Timer.Armed {
		var first *agents.Agent
		for _, m := range s.MinerAgents() {
			if m.Role == agents.RoleActive && s.arrived(m) {
				first = m
				break
			}
		}
		if first == nil {
			return
		}
		s.Timer.Arm(s.Params.CollectionDuration)
		s.emit(Event{
			Kind:        EventCollecting,
			AgentID:     ptr(first.ID),
			ResourceID:  ptr(s.Target.Resource),
			Position:    s.Target.Position,
			Description: fmt.Sprintf("miner %d started collecting", first.ID),
		})
	}

	if !s.Timer.Advance(dt) {
		return
	}

	if r := s.targetResource(); r != nil {
		r.Exists = false
		s.Stats.Collected[r.Kind.String()]++
		s.emit(Event{
			Kind:        EventConsumed,
			ResourceID:  ptr(r.ID),
			Position:    r.Position,
			Description: r.Kind.String() + " deposit collected",
		})
		slog.Info("resource collected",
			"tick", s.LastTick,
			"resource", r.ID,
			"kind", r.Kind.String(),
			"clock", SimTime(s.Clock),
		)
	}

	s.clearTarget()
	s.recallMiners()
}

// recallMiners sends every active miner home. Miners already returning keep
// going; idle miners were not part of the pursuit.
func (s *Simulation) recallMiners() {
	for _, m := range s.MinerAgents() {
		if m.Role != agents.RoleActive {
			continue
		}
		if err := m.Apply(agents.TriggerRecall); err != nil {
			slog.Error("recall failed", "agent", m.ID, "error", err)
			continue
		}
		s.planRoute(m, s.Base)
		s.emit(Event{
			Kind:        EventRecall,
			AgentID:     ptr(m.ID),
			Position:    m.Position,
			Description: fmt.Sprintf("miner %d returning to base", m.ID),
		})
	}
}

// targetResource returns the live resource the target refers to, or nil when
// it is gone. A target whose ID no longer resolves falls back to any live
// resource within TargetTolerance of the target position.
func (s *Simulation) targetResource() *Resource {
	t := s.Target
	if t == nil {
		return nil
	}
	if int(t.Resource) < len(s.Resources) {
		if r := s.Resources[t.Resource]; r.Exists {
			return r
		}
		return nil
	}
	return s.resourceNear(t.Position, s.Params.TargetTolerance)
}

func (s *Simulation) clearTarget() {
	s.Target = nil
	s.Timer.Reset()
}

func (s *Simulation) arrived(m *agents.Agent) bool {
	return s.Target != nil && planar.Distance(m.Position, s.Target.Position) <= s.Params.ArrivalRadius
}

func (s *Simulation) anyMinerIn(role agents.Role) bool {
	for _, id := range s.Miners {
		if s.Agents[id].Role == role {
			return true
		}
	}
	return false
}

// planRoute commits an A* route in path mode. Without a route the miner falls
// back to steering.
func (s *Simulation) planRoute(m *agents.Agent, dest orb.Point) {
	m.Route = nil
	if s.Params.Movement != MovePath {
		return
	}
	path, ok := pathfind.Search(m.Position, dest, s.Grid, s.Params.Heuristic)
	if !ok {
		slog.Debug("no route, steering instead", "agent", m.ID, "dest", dest)
		return
	}
	m.Route = pathfind.NewFollower(path, s.Grid.Bounds.CellSize)
}

// travel moves an agent toward dest for one tick, following its route while it
// has one. The step is shortened so the agent stops on dest rather than
// overshooting it.
func (s *Simulation) travel(a *agents.Agent, dest orb.Point, dt float64) {
	if !a.Route.Done() {
		if next, heading, ok := a.Route.Step(a.Position, a.Speed, dt, s.Grid); ok {
			a.Position, a.Heading = next, heading
			return
		}
	}

	speed := a.Speed
	if d := planar.Distance(a.Position, dest); dt > 0 && speed*dt > d {
		speed = d / dt
	}
	a.Position, a.Heading = steer.Step(a.Position, dest, speed, dt, s.Grid)
}
