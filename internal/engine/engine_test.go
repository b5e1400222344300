package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/engine"
	"github.com/talgya/crystal-expedition/internal/world"
)

// openSetup returns the default session on an obstacle-free 800×600 grid with
// only the given resources.
func openSetup(t *testing.T, spawns ...world.SpawnPoint) engine.Setup {
	t.Helper()
	b, err := world.NewBounds(800, 600, 20)
	require.NoError(t, err)

	s := engine.DefaultSetup()
	s.Grid = world.NewGrid(b)
	s.Spawns = spawns
	s.RandomResources = 0
	return s
}

func energyAt(x, y float64) world.SpawnPoint {
	return world.SpawnPoint{Kind: world.ResourceEnergy, Position: orb.Point{x, y}}
}

func newSim(t *testing.T, setup engine.Setup) *engine.Simulation {
	t.Helper()
	sim, err := engine.NewSimulation(setup)
	require.NoError(t, err)
	return sim
}

func kinds(events []engine.Event) map[engine.EventKind]int {
	out := make(map[engine.EventKind]int)
	for _, e := range events {
		out[e.Kind]++
	}
	return out
}

func TestPhaseNames_Order(t *testing.T) {
	assert.Equal(t, []string{"guard", "discover", "move", "collect", "explore"}, engine.PhaseNames())
}

func TestSetup_Validate(t *testing.T) {
	s := engine.DefaultSetup()
	require.NoError(t, s.Validate())

	s.Miners = 0
	assert.ErrorIs(t, s.Validate(), engine.ErrInvalidSetup)

	s = engine.DefaultSetup()
	s.Dispatch.ArrivalRadius = 0
	assert.ErrorIs(t, s.Validate(), engine.ErrInvalidSetup)

	s = engine.DefaultSetup()
	s.Gen.CellSize = 0
	assert.ErrorIs(t, s.Validate(), world.ErrInvalidBounds)

	_, err := engine.NewSimulation(s)
	assert.Error(t, err)
}

func TestNewSimulation_SpawnEventsOnFirstTick(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(300, 200), energyAt(-300, -200)))

	events := sim.Tick(1.0 / 60)
	assert.Equal(t, 2, kinds(events)[engine.EventSpawn])
	for _, e := range events {
		assert.Equal(t, uint64(1), e.Tick)
	}
	assert.Empty(t, kinds(sim.Tick(1.0 / 60))[engine.EventSpawn])
}

func TestNewSimulation_Team(t *testing.T) {
	sim := newSim(t, openSetup(t))

	assert.Equal(t, agents.KindExplorer, sim.ExplorerAgent().Kind)
	require.Len(t, sim.MinerAgents(), 3)
	for _, m := range sim.MinerAgents() {
		assert.Equal(t, agents.RoleIdle, m.Role)
		assert.Equal(t, agents.KindMiner, m.Kind)
	}
	assert.Equal(t, 3, sim.RoleCounts()[agents.RoleIdle])
}

func TestNewSimulation_ClearsAroundResources(t *testing.T) {
	setup := openSetup(t, energyAt(200, 100))
	c := setup.Grid.Bounds.CellAt(orb.Point{200, 100})
	setup.Grid.Set(c, true)

	sim := newSim(t, setup)
	assert.False(t, sim.Grid.Occupied(c))
}

func TestSetup_RejectsOffGridPlacement(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) engine.Setup
	}{
		{"spawn just past the edge", func(t *testing.T) engine.Setup { return openSetup(t, energyAt(428, 0)) }},
		{"spawn far away", func(t *testing.T) engine.Setup { return openSetup(t, energyAt(1000, 0)) }},
		{"base off grid", func(t *testing.T) engine.Setup {
			s := openSetup(t)
			s.Base = orb.Point{1000, 0}
			return s
		}},
		{"explorer start off a small map", func(*testing.T) engine.Setup {
			s := engine.DefaultSetup()
			s.Gen = world.SmallTestConfig()
			s.Spawns = nil
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(t)
			assert.ErrorIs(t, s.Validate(), engine.ErrInvalidSetup)

			_, err := engine.NewSimulation(s)
			assert.ErrorIs(t, err, engine.ErrInvalidSetup)
		})
	}
}

func TestNewSimulation_ClearsSpawnOnObstacle(t *testing.T) {
	setup := openSetup(t, energyAt(-150, 120))
	p := orb.Point{-150, 120}
	c := setup.Grid.Bounds.CellAt(p)
	for dc := -1; dc <= 1; dc++ {
		for dr := -1; dr <= 1; dr++ {
			setup.Grid.Set(world.Cell{Col: c.Col + dc, Row: c.Row + dr}, true)
		}
	}
	require.True(t, setup.Grid.Blocked(p))

	sim := newSim(t, setup)
	assert.False(t, sim.Grid.Blocked(p))
}

func TestNewSimulation_ClearsAroundBaseAndTeam(t *testing.T) {
	setup := openSetup(t)
	setup.Base = orb.Point{200, 100}
	explorer, miners := agents.TeamPositions(agents.TeamConfig{Base: setup.Base, Miners: setup.Miners})
	require.Equal(t, orb.Point{200, 150}, explorer)

	blocked := append([]orb.Point{setup.Base, explorer}, miners...)
	for _, p := range blocked {
		setup.Grid.Set(setup.Grid.Bounds.CellAt(p), true)
		require.True(t, setup.Grid.Blocked(p))
	}

	sim := newSim(t, setup)
	for _, p := range blocked {
		assert.False(t, sim.Grid.Blocked(p), "%v", p)
	}
	assert.Equal(t, explorer, sim.ExplorerAgent().Position)
}

func TestDiscovery_NearestWinsAndDispatchesAll(t *testing.T) {
	// Explorer starts at (0, 50).
	sim := newSim(t, openSetup(t, energyAt(0, 75), energyAt(20, 50), energyAt(300, 200)))

	events := sim.Tick(1.0 / 60)

	require.NotNil(t, sim.Target)
	assert.Equal(t, engine.ResourceID(1), sim.Target.Resource)
	assert.Equal(t, orb.Point{20, 50}, sim.Target.Position)
	assert.Equal(t, agents.ModePaused, sim.ExplorerMode)
	assert.Equal(t, 3, sim.RoleCounts()[agents.RoleActive])

	k := kinds(events)
	assert.Equal(t, 1, k[engine.EventDiscovery])
	assert.Equal(t, 3, k[engine.EventDispatch])
	assert.Equal(t, 1, sim.Stats.Discovered)
}

func TestDiscovery_TieGoesToFirstFound(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(-20, 50), energyAt(20, 50)))
	sim.Tick(1.0 / 60)

	require.NotNil(t, sim.Target)
	assert.Equal(t, engine.ResourceID(0), sim.Target.Resource)
}

func TestDiscovery_OutOfRange(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(300, 200)))
	sim.Tick(1.0 / 60)

	assert.Nil(t, sim.Target)
	assert.Equal(t, 3, sim.RoleCounts()[agents.RoleIdle])
	assert.Equal(t, agents.ModeWandering, sim.ExplorerMode)
}

func TestDiscovery_NeedsIdleMiner(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(20, 50)))
	for _, m := range sim.MinerAgents() {
		m.Role = agents.RoleReturning
	}
	sim.Tick(1.0 / 60)

	assert.Nil(t, sim.Target)
}

func TestCollection_TimedCycle(t *testing.T) {
	setup := openSetup(t, energyAt(0, -25))
	setup.Miners = 1
	sim := newSim(t, setup)
	explorer := sim.ExplorerAgent()
	explorer.Position = orb.Point{0, -10}

	miner := sim.MinerAgents()[0]
	require.Equal(t, orb.Point{0, -30}, miner.Position)

	events := sim.Tick(0.5)
	require.NotNil(t, sim.Target)
	assert.Equal(t, agents.RoleActive, miner.Role)
	assert.True(t, sim.Timer.Armed)
	assert.Equal(t, 1, kinds(events)[engine.EventCollecting])

	sim.Tick(0.5)
	sim.Tick(0.5)
	assert.True(t, sim.Resources[0].Exists, "resource still present before the duration elapses")
	assert.InDelta(t, 0.5, sim.Timer.Remaining(), 1e-9)
	assert.Equal(t, orb.Point{0, -10}, explorer.Position, "explorer paused while a target is active")

	events = sim.Tick(0.5)
	assert.False(t, sim.Resources[0].Exists)
	assert.Nil(t, sim.Target)
	assert.False(t, sim.Timer.Armed)
	assert.Equal(t, agents.RoleReturning, miner.Role)

	k := kinds(events)
	assert.Equal(t, 1, k[engine.EventConsumed])
	assert.Equal(t, 1, k[engine.EventRecall])
	assert.Equal(t, 1, sim.Stats.Collected["energy"])
	assert.Empty(t, sim.LiveResources())
}

func TestCollection_LaterArrivalsDoNotResetTimer(t *testing.T) {
	setup := openSetup(t, energyAt(0, -25))
	setup.MinerSpeed = 30
	sim := newSim(t, setup)
	sim.ExplorerAgent().Position = orb.Point{0, -10}

	collecting := 0
	for tick := 1; tick <= 19; tick++ {
		collecting += kinds(sim.Tick(0.1))[engine.EventCollecting]
		require.True(t, sim.Resources[0].Exists, "tick %d", tick)
	}
	for _, m := range sim.MinerAgents() {
		assert.LessOrEqual(t, planar.Distance(m.Position, orb.Point{0, -25}), 20.0)
	}

	events := sim.Tick(0.1)
	collecting += kinds(events)[engine.EventCollecting]
	assert.Equal(t, 1, collecting)
	assert.Equal(t, 1, kinds(events)[engine.EventConsumed])
	assert.False(t, sim.Resources[0].Exists)
}

func TestCollection_ConsumesTargetedDepositOnly(t *testing.T) {
	mineral := world.SpawnPoint{Kind: world.ResourceMineral, Position: orb.Point{0.5, -25}}
	setup := openSetup(t, energyAt(0, -25), mineral)
	setup.Miners = 1
	sim := newSim(t, setup)
	sim.ExplorerAgent().Position = orb.Point{0.4, -10}

	var events []engine.Event
	for i := 0; i < 4; i++ {
		events = append(events, sim.Tick(0.5)...)
		if i == 0 {
			require.NotNil(t, sim.Target)
			assert.Equal(t, engine.ResourceID(1), sim.Target.Resource)
		}
	}

	var consumed []engine.ResourceID
	for _, e := range events {
		if e.Kind == engine.EventConsumed {
			require.NotNil(t, e.ResourceID)
			consumed = append(consumed, *e.ResourceID)
		}
	}
	assert.Equal(t, []engine.ResourceID{1}, consumed)
	assert.False(t, sim.Resources[1].Exists)
	assert.True(t, sim.Resources[0].Exists)
	assert.Equal(t, 1, sim.Stats.Collected["mineral"])
	assert.Zero(t, sim.Stats.Collected["energy"])

	for i := 0; i < 120; i++ {
		for _, e := range sim.Tick(1.0 / 60) {
			if e.Kind == engine.EventDiscovery {
				require.NotNil(t, e.ResourceID)
				assert.NotEqual(t, engine.ResourceID(1), *e.ResourceID, "collected deposit rediscovered")
			}
		}
	}
}

func TestReturn_DocksAtBase(t *testing.T) {
	setup := openSetup(t, energyAt(0, -25))
	setup.Miners = 1
	sim := newSim(t, setup)
	sim.ExplorerAgent().Position = orb.Point{0, -10}
	miner := sim.MinerAgents()[0]

	docked := 0
	for i := 0; i < 20 && docked == 0; i++ {
		docked += kinds(sim.Tick(0.5))[engine.EventDock]
	}

	assert.Equal(t, 1, docked)
	assert.Equal(t, agents.RoleIdle, miner.Role)
	assert.LessOrEqual(t, planar.Distance(miner.Position, sim.Base), setup.Dispatch.BaseRadius)
	assert.Nil(t, miner.Route)
}

func TestFullCycle_Steering(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(20, 50)))

	var all []engine.Event
	for i := 0; i < 600 && (len(all) == 0 || sim.RoleCounts()[agents.RoleIdle] < 3); i++ {
		all = append(all, sim.Tick(1.0/60)...)
	}

	k := kinds(all)
	assert.Equal(t, 1, k[engine.EventConsumed])
	assert.Equal(t, 3, k[engine.EventDock])
	assert.Equal(t, 3, sim.RoleCounts()[agents.RoleIdle])
	assert.Equal(t, agents.ModeWandering, sim.ExplorerMode)
}

func TestFullCycle_PathMode(t *testing.T) {
	setup := openSetup(t, energyAt(20, 50))
	setup.Dispatch.Movement = engine.MovePath
	sim := newSim(t, setup)

	sim.Tick(1.0 / 60)
	for _, m := range sim.MinerAgents() {
		require.NotNil(t, m.Route, "miner %d", m.ID)
		assert.False(t, m.Route.Done())
	}

	consumed := 0
	for i := 0; i < 600 && consumed == 0; i++ {
		consumed += kinds(sim.Tick(1.0 / 60))[engine.EventConsumed]
	}
	assert.Equal(t, 1, consumed)
}

func TestPathMode_RoutesAroundWall(t *testing.T) {
	setup := openSetup(t, energyAt(200, -30))
	setup.Dispatch.Movement = engine.MovePath
	for row := 10; row <= 19; row++ {
		setup.Grid.Set(world.Cell{Col: 25, Row: row}, true)
	}
	sim := newSim(t, setup)
	sim.ExplorerAgent().Position = orb.Point{200, -10}

	sim.Tick(1.0 / 60)
	require.NotNil(t, sim.Target)
	for _, m := range sim.MinerAgents() {
		require.NotNil(t, m.Route)
		for _, wp := range m.Route.Path {
			assert.False(t, sim.Grid.Occupied(sim.Grid.Bounds.CellAt(wp)), "waypoint %v", wp)
		}
	}

	consumed := 0
	for i := 0; i < 3600 && consumed == 0; i++ {
		consumed += kinds(sim.Tick(1.0 / 60))[engine.EventConsumed]
		for _, m := range sim.MinerAgents() {
			require.False(t, world.IsBlocked(m.Position, sim.Grid), "miner %d at %v", m.ID, m.Position)
		}
	}
	assert.Equal(t, 1, consumed)
}

func TestGuard_AbandonsVanishedTarget(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(20, 50)))
	sim.Tick(1.0 / 60)
	require.NotNil(t, sim.Target)

	assert.True(t, sim.Despawn(0))
	assert.False(t, sim.Despawn(0))
	assert.False(t, sim.Despawn(99))
	assert.Equal(t, 1, sim.Stats.Removed)

	events := sim.Tick(1.0 / 60)
	k := kinds(events)
	assert.Equal(t, 1, k[engine.EventRemoved])
	assert.Equal(t, 1, k[engine.EventAbandon])
	assert.Equal(t, 3, k[engine.EventRecall])
	assert.Zero(t, k[engine.EventConsumed])

	assert.Nil(t, sim.Target)
	assert.False(t, sim.Timer.Armed)
	assert.Equal(t, 3, sim.RoleCounts()[agents.RoleReturning])
	assert.Equal(t, 1, sim.Stats.Abandoned)
}

func TestIdleMinersStayPut(t *testing.T) {
	sim := newSim(t, openSetup(t, energyAt(300, 200)))
	before := make([]orb.Point, 0, 3)
	for _, m := range sim.MinerAgents() {
		before = append(before, m.Position)
	}
	for i := 0; i < 30; i++ {
		sim.Tick(1.0 / 60)
	}
	for i, m := range sim.MinerAgents() {
		assert.Equal(t, before[i], m.Position)
	}
}

func TestExplore_MarksExplorerSurroundings(t *testing.T) {
	sim := newSim(t, openSetup(t))
	sim.Tick(1.0 / 60)

	assert.True(t, sim.Explored.IsSeen(sim.ExplorerAgent().Position))
	assert.Positive(t, sim.Explored.Count())
}

func TestSimulation_Deterministic(t *testing.T) {
	run := func() (*engine.Simulation, int) {
		sim := newSim(t, engine.DefaultSetup())
		n := 0
		for i := 0; i < 1200; i++ {
			n += len(sim.Tick(1.0 / 60))
		}
		return sim, n
	}
	a, na := run()
	b, nb := run()

	assert.Equal(t, na, nb)
	assert.Equal(t, a.ExplorerAgent().Position, b.ExplorerAgent().Position)
	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Explored.Count(), b.Explored.Count())
}

func TestTick_NegativeDtClamped(t *testing.T) {
	sim := newSim(t, openSetup(t))
	sim.Tick(-1)
	assert.Zero(t, sim.Clock)
	assert.Equal(t, uint64(1), sim.CurrentTick())
}

func TestCollectionTimer(t *testing.T) {
	var timer engine.CollectionTimer
	assert.False(t, timer.Advance(1))

	require.True(t, timer.Arm(2))
	assert.False(t, timer.Arm(5), "arming twice keeps the first duration")
	assert.False(t, timer.Advance(1.5))
	assert.InDelta(t, 0.5, timer.Remaining(), 1e-9)
	assert.True(t, timer.Advance(0.5))
	assert.Zero(t, timer.Remaining())

	timer.Reset()
	assert.False(t, timer.Armed)
}

func TestEngine_RunFixed(t *testing.T) {
	e := engine.NewEngine()
	e.ReportEvery = 5

	var ticks, reports int
	var lastDt float64
	e.OnTick = func(_ uint64, dt float64) {
		ticks++
		lastDt = dt
	}
	e.OnReport = func(uint64) { reports++ }

	e.RunFixed(12, 0.1)
	assert.Equal(t, 12, ticks)
	assert.Equal(t, 2, reports)
	assert.Equal(t, uint64(12), e.Tick)
	assert.Equal(t, 0.1, lastDt)
	assert.False(t, e.Running())
}

func TestEngine_StopEndsRunFixed(t *testing.T) {
	e := engine.NewEngine()
	e.OnTick = func(tick uint64, _ float64) {
		if tick == 3 {
			e.Stop()
		}
	}
	e.RunFixed(100, 0.1)
	assert.Equal(t, uint64(3), e.Tick)
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e := engine.NewEngine()
	e.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	e.OnTick = func(tick uint64, dt float64) {
		assert.LessOrEqual(t, dt, engine.MaxStep)
		if tick == 5 {
			cancel()
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after cancel")
	}
	assert.GreaterOrEqual(t, e.Tick, uint64(5))
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "0:00.000", engine.SimTime(0))
	assert.Equal(t, "0:02.500", engine.SimTime(2.5))
	assert.Equal(t, "1:05.250", engine.SimTime(65.25))
	assert.Equal(t, "0:00.000", engine.SimTime(-3))
}

func TestParseMovementMode(t *testing.T) {
	m, ok := engine.ParseMovementMode("path")
	assert.True(t, ok)
	assert.Equal(t, engine.MovePath, m)
	assert.Equal(t, "path", m.String())

	m, ok = engine.ParseMovementMode("")
	assert.True(t, ok)
	assert.Equal(t, engine.MoveSteering, m)

	_, ok = engine.ParseMovementMode("teleport")
	assert.False(t, ok)
}
