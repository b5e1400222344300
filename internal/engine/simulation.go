// Simulation ties together all world systems and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/explore"
	"github.com/talgya/crystal-expedition/internal/pathfind"
	"github.com/talgya/crystal-expedition/internal/world"
)

// ErrInvalidSetup is returned for setup parameters the simulation cannot run with.
var ErrInvalidSetup = errors.New("invalid simulation setup")

// MovementMode selects how miners travel.
type MovementMode uint8

const (
	MoveSteering MovementMode = iota // Local avoidance every tick
	MovePath                         // Committed A* route, steering fallback
)

// String returns the config name of a movement mode.
func (m MovementMode) String() string {
	if m == MovePath {
		return "path"
	}
	return "steering"
}

// ParseMovementMode maps a config name to a movement mode.
func ParseMovementMode(s string) (MovementMode, bool) {
	switch s {
	case "", "steering":
		return MoveSteering, true
	case "path":
		return MovePath, true
	}
	return 0, false
}

// DispatchParams tunes the discovery → collect → return cycle.
type DispatchParams struct {
	DiscoveryRadius    float64 // Explorer-to-resource distance that triggers discovery
	ArrivalRadius      float64 // Miner-to-target distance that counts as arrived
	BaseRadius         float64 // Miner-to-base distance that counts as docked
	CollectionDuration float64 // Simulated seconds of collection
	TargetTolerance    float64 // Max distance between target and its resource
	Movement           MovementMode
	Heuristic          pathfind.Heuristic // Path mode only; nil means Manhattan
}

// DefaultDispatchParams returns the standard tuning.
func DefaultDispatchParams() DispatchParams {
	return DispatchParams{
		DiscoveryRadius:    35,
		ArrivalRadius:      20,
		BaseRadius:         15,
		CollectionDuration: 2.0,
		TargetTolerance:    1.0,
		Movement:           MoveSteering,
		Heuristic:          pathfind.Manhattan,
	}
}

// Setup holds everything fixed at session start.
type Setup struct {
	Gen  world.GenConfig
	Grid *world.Grid // Prebuilt grid; Gen is used only for its seed when set

	ExploredCellSize float64
	Base             orb.Point

	Spawns          []world.SpawnPoint
	RandomResources int // Extra procedurally scattered resources

	Miners        int
	ExplorerSpeed float64
	MinerSpeed    float64
	Wander        agents.WanderConfig

	Dispatch DispatchParams
}

// DefaultSetup returns the standard 800×600 session with three miners.
func DefaultSetup() Setup {
	return Setup{
		Gen:              world.DefaultGenConfig(),
		ExploredCellSize: 20,
		Base:             orb.Point{0, 0},
		Spawns: []world.SpawnPoint{
			{Kind: world.ResourceEnergy, Position: orb.Point{-250, 150}},
			{Kind: world.ResourceEnergy, Position: orb.Point{200, -180}},
			{Kind: world.ResourceEnergy, Position: orb.Point{120, 200}},
			{Kind: world.ResourceMineral, Position: orb.Point{-300, -200}},
			{Kind: world.ResourceMineral, Position: orb.Point{300, 100}},
			{Kind: world.ResourceMineral, Position: orb.Point{-100, -160}},
		},
		RandomResources: 4,
		Miners:          3,
		ExplorerSpeed:   100,
		MinerSpeed:      120,
		Wander:          agents.DefaultWanderConfig(),
		Dispatch:        DefaultDispatchParams(),
	}
}

// Validate rejects setups that would divide by zero or never make progress.
func (s Setup) Validate() error {
	if s.Grid == nil {
		if err := s.Gen.Validate(); err != nil {
			return err
		}
	}
	d := s.Dispatch
	switch {
	case s.Miners < 1:
		return fmt.Errorf("%w: need at least one miner, got %d", ErrInvalidSetup, s.Miners)
	case s.ExplorerSpeed <= 0 || s.MinerSpeed <= 0:
		return fmt.Errorf("%w: speeds must be positive", ErrInvalidSetup)
	case s.ExploredCellSize <= 0:
		return fmt.Errorf("%w: explored cell size %g", ErrInvalidSetup, s.ExploredCellSize)
	case s.RandomResources < 0:
		return fmt.Errorf("%w: random resources %d", ErrInvalidSetup, s.RandomResources)
	case d.DiscoveryRadius <= 0 || d.ArrivalRadius <= 0 || d.BaseRadius <= 0:
		return fmt.Errorf("%w: radii must be positive", ErrInvalidSetup)
	case d.CollectionDuration < 0 || d.TargetTolerance < 0:
		return fmt.Errorf("%w: negative collection duration or tolerance", ErrInvalidSetup)
	}

	// Gen was validated above when no grid is supplied.
	b, _ := s.Gen.Bounds()
	if s.Grid != nil {
		b = s.Grid.Bounds
	}
	return s.checkPlacement(b)
}

// checkPlacement rejects a base, team slot or spawn point that falls outside
// the grid. Such a point can never be cleared, so nobody could reach it.
func (s Setup) checkPlacement(b world.Bounds) error {
	if !b.Contains(s.Base) {
		return fmt.Errorf("%w: base %v outside the grid", ErrInvalidSetup, s.Base)
	}
	explorer, miners := agents.TeamPositions(s.team())
	if !b.Contains(explorer) {
		return fmt.Errorf("%w: explorer start %v outside the grid", ErrInvalidSetup, explorer)
	}
	for i, p := range miners {
		if !b.Contains(p) {
			return fmt.Errorf("%w: miner %d start %v outside the grid", ErrInvalidSetup, i, p)
		}
	}
	for i, sp := range s.Spawns {
		if !b.Contains(sp.Position) {
			return fmt.Errorf("%w: spawn %d (%s) at %v outside the grid", ErrInvalidSetup, i, sp.Kind, sp.Position)
		}
	}
	return nil
}

func (s Setup) team() agents.TeamConfig {
	return agents.TeamConfig{
		Base:          s.Base,
		Miners:        s.Miners,
		ExplorerSpeed: s.ExplorerSpeed,
		MinerSpeed:    s.MinerSpeed,
	}
}

// Simulation is the single session object. Agents and resources live in
// arenas indexed by their IDs; every subsystem reaches them through here.
type Simulation struct {
	Grid     *world.Grid
	Explored *explore.Zones
	Base     orb.Point
	Params   DispatchParams

	Agents    []*agents.Agent // Index = AgentID
	Explorer  agents.AgentID
	Miners    []agents.AgentID
	Resources []*Resource // Index = ResourceID

	Wanderer     *agents.Wanderer
	ExplorerMode agents.ExplorerMode

	Target *Target // Shared by all active miners; nil when nothing is pursued
	Timer  CollectionTimer

	LastTick uint64  // Most recent tick processed
	Clock    float64 // Simulated seconds

	Stats SimStats

	pending []Event
}

// SimStats tracks aggregate run statistics.
type SimStats struct {
	Discovered int            `json:"discovered"`
	Collected  map[string]int `json:"collected"` // By resource kind name
	Abandoned  int            `json:"abandoned"`
	Removed    int            `json:"removed"`
}

// NewSimulation builds the grid, places resources, clears obstacles around
// them, and spawns the team. Spawn events are returned by the first Tick.
func NewSimulation(setup Setup) (*Simulation, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	grid := setup.Grid
	if grid == nil {
		var err error
		grid, err = world.Generate(setup.Gen)
		if err != nil {
			return nil, fmt.Errorf("generate grid: %w", err)
		}
	}
	seed := setup.Gen.Seed

	rng := rand.New(rand.NewSource(seed + 400))
	spawns := append([]world.SpawnPoint(nil), setup.Spawns...)
	spawns = append(spawns, world.ScatterSpawns(grid, rng, setup.RandomResources, setup.Base, 50, 120)...)
	if err := clearPlacements(grid, setup, spawns); err != nil {
		return nil, err
	}

	eb, err := world.NewBounds(grid.Bounds.Width, grid.Bounds.Height, setup.ExploredCellSize)
	if err != nil {
		return nil, fmt.Errorf("explored map: %w", err)
	}

	params := setup.Dispatch
	if params.Heuristic == nil {
		params.Heuristic = pathfind.Manhattan
	}

	s := &Simulation{
		Grid:     grid,
		Explored: explore.NewZones(eb),
		Base:     setup.Base,
		Params:   params,
		Stats:    SimStats{Collected: make(map[string]int)},
	}

	spawner := agents.NewSpawner(seed)
	explorer, miners := spawner.SpawnTeam(setup.team())
	s.Agents = append(s.Agents, explorer)
	s.Explorer = explorer.ID
	for _, m := range miners {
		s.Agents = append(s.Agents, m)
		s.Miners = append(s.Miners, m.ID)
	}
	s.Wanderer = spawner.Wanderer(setup.Wander)

	for i, sp := range spawns {
		r := &Resource{ID: ResourceID(i), Kind: sp.Kind, Position: sp.Position, Exists: true}
		s.Resources = append(s.Resources, r)
		s.emit(Event{
			Kind:        EventSpawn,
			ResourceID:  ptr(r.ID),
			Position:    r.Position,
			Description: r.Kind.String() + " deposit spawned",
		})
	}

	slog.Info("simulation ready",
		"grid", grid.String(),
		"resources", len(s.Resources),
		"miners", len(s.Miners),
		"movement", params.Movement.String(),
	)
	return s, nil
}

// clearPlacements frees the obstacles around every spawn point, the base and
// the team's start positions, then confirms each of them is passable.
func clearPlacements(grid *world.Grid, setup Setup, spawns []world.SpawnPoint) error {
	explorer, miners := agents.TeamPositions(setup.team())
	points := append([]orb.Point{setup.Base, explorer}, miners...)

	world.ClearAroundSpawns(grid, spawns)
	for _, p := range points {
		world.ClearAround(grid, p)
	}

	for _, sp := range spawns {
		points = append(points, sp.Position)
	}
	for _, p := range points {
		if grid.Blocked(p) {
			return fmt.Errorf("%w: %v still blocked after clearing", ErrInvalidSetup, p)
		}
	}
	return nil
}

// phase is one step of the tick pipeline.
type phase struct {
	name string
	run  func(s *Simulation, dt float64)
}

// tickPhases run in this order every tick. Discovery precedes movement so a
// freshly dispatched miner moves in the same tick; movement precedes
// exploration marking so newly reached cells are seen in the tick they are
// reached.
var tickPhases = [...]phase{
	{"guard", (*Simulation).guardTarget},
	{"discover", (*Simulation).discover},
	{"move", (*Simulation).move},
	{"collect", (*Simulation).collect},
	{"explore", (*Simulation).markExplored},
}

// PhaseNames lists the tick pipeline in execution order.
func PhaseNames() []string {
	names := make([]string, len(tickPhases))
	for i, p := range tickPhases {
		names[i] = p.name
	}
	return names
}

// Tick advances the simulation by dt simulated seconds and returns the
// events it produced (plus any queued since the previous tick).
func (s *Simulation) Tick(dt float64) []Event {
	if dt < 0 {
		dt = 0
	}
	s.LastTick++
	s.Clock += dt

	for _, p := range tickPhases {
		p.run(s, dt)
	}

	events := s.pending
	s.pending = nil
	return events
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// ExplorerAgent returns the explorer.
func (s *Simulation) ExplorerAgent() *agents.Agent {
	return s.Agents[s.Explorer]
}

// MinerAgents returns the miners in ID order.
func (s *Simulation) MinerAgents() []*agents.Agent {
	out := make([]*agents.Agent, len(s.Miners))
	for i, id := range s.Miners {
		out[i] = s.Agents[id]
	}
	return out
}

// RoleCounts returns how many miners hold each role.
func (s *Simulation) RoleCounts() map[agents.Role]int {
	counts := make(map[agents.Role]int)
	for _, m := range s.MinerAgents() {
		counts[m.Role]++
	}
	return counts
}

func (s *Simulation) markExplored(_ float64) {
	s.Explored.MarkSeen(s.ExplorerAgent().Position)
}
