// Agent spawning: places the explorer and the miner team around the base.
package agents

import (
	"math/rand"

	"github.com/paulmach/orb"
)

// Spawn layout relative to the base.
const (
	ExplorerOffsetY = 50.0  // Explorer starts this far above the base
	MinerOffsetY    = -30.0 // Miner row sits this far below the base
	MinerSpacing    = 30.0  // Horizontal gap between miners
)

// TeamConfig controls initial team generation.
type TeamConfig struct {
	Base          orb.Point
	Miners        int
	ExplorerSpeed float64
	MinerSpeed    float64
}

// Spawner creates agents for the simulation. IDs are issued densely from 0 so
// they double as arena indices.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 0,
	}
}

// TeamPositions returns where SpawnTeam places the explorer and each miner:
// the explorer above the base, the miners centered in a row below it.
func TeamPositions(cfg TeamConfig) (explorer orb.Point, miners []orb.Point) {
	explorer = orb.Point{cfg.Base.X(), cfg.Base.Y() + ExplorerOffsetY}

	mid := float64(cfg.Miners-1) / 2
	for i := 0; i < cfg.Miners; i++ {
		miners = append(miners, orb.Point{
			cfg.Base.X() + MinerSpacing*(float64(i)-mid),
			cfg.Base.Y() + MinerOffsetY,
		})
	}
	return explorer, miners
}

// SpawnTeam creates the explorer followed by cfg.Miners miners at
// TeamPositions. All start Idle.
func (s *Spawner) SpawnTeam(cfg TeamConfig) (explorer *Agent, miners []*Agent) {
	ep, mps := TeamPositions(cfg)
	explorer = s.spawnOne(KindExplorer, ep, cfg.ExplorerSpeed)

	miners = make([]*Agent, 0, cfg.Miners)
	for _, p := range mps {
		miners = append(miners, s.spawnOne(KindMiner, p, cfg.MinerSpeed))
	}
	return explorer, miners
}

// Wanderer creates the explorer's movement controller, seeded from the
// spawner's stream.
func (s *Spawner) Wanderer(cfg WanderConfig) *Wanderer {
	return NewWanderer(cfg, s.rng.Int63())
}

func (s *Spawner) spawnOne(kind Kind, pos orb.Point, speed float64) *Agent {
	id := s.nextID
	s.nextID++
	return &Agent{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Role:     RoleIdle,
		Speed:    speed,
	}
}
