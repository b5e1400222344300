// Package config loads expedition scenarios from YAML. Every field has a
// default, so a file only needs to name what it changes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/engine"
	"github.com/talgya/crystal-expedition/internal/pathfind"
	"github.com/talgya/crystal-expedition/internal/world"
)

// SeedEnv overrides world.seed when set.
const SeedEnv = "EXPEDITION_SEED"

// ErrInvalidConfig is returned for values that cannot describe a session.
var ErrInvalidConfig = errors.New("invalid config")

// Config is a whole scenario as read from YAML.
type Config struct {
	World     World     `yaml:"world"`
	Explored  Explored  `yaml:"explored"`
	Base      Point     `yaml:"base"`
	Resources Resources `yaml:"resources"`
	Agents    Agents    `yaml:"agents"`
	Dispatch  Dispatch  `yaml:"dispatch"`
	Run       Run       `yaml:"run"`
	Output    Output    `yaml:"output"`
	Log       Log       `yaml:"log"`
}

// World sizes the map and tunes obstacle generation.
type World struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	CellSize       float64 `yaml:"cell_size"`
	Seed           int64   `yaml:"seed"` // 0 picks a random seed at startup
	NoiseScale     float64 `yaml:"noise_scale"`
	NoiseThreshold float64 `yaml:"noise_threshold"`
	ClutterChance  float64 `yaml:"clutter_chance"`
	WallCount      int     `yaml:"wall_count"`
	WallMinLen     int     `yaml:"wall_min_len"`
	WallMaxLen     int     `yaml:"wall_max_len"`
	WallMinGrid    int     `yaml:"wall_min_grid"`
	SafeRadius     int     `yaml:"safe_radius"`
}

// Explored sets the resolution of the explored-area grid.
type Explored struct {
	CellSize float64 `yaml:"cell_size"`
}

// Point is a position in centered world coordinates.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Spawn places one deposit of the named kind.
type Spawn struct {
	Kind string  `yaml:"kind"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Resources lists fixed deposits and how many more to scatter.
type Resources struct {
	Random int     `yaml:"random"` // Scattered in addition to Spawns
	Spawns []Spawn `yaml:"spawns"`
}

// Agents sizes the team and sets its speeds and wander behavior.
type Agents struct {
	Miners             int     `yaml:"miners"`
	ExplorerSpeed      float64 `yaml:"explorer_speed"`
	MinerSpeed         float64 `yaml:"miner_speed"`
	WanderTurnInterval float64 `yaml:"wander_turn_interval"`
	WanderEdgeMargin   float64 `yaml:"wander_edge_margin"`
}

// Dispatch tunes discovery, collection and how miners move.
type Dispatch struct {
	DiscoveryRadius    float64 `yaml:"discovery_radius"`
	ArrivalRadius      float64 `yaml:"arrival_radius"`
	BaseRadius         float64 `yaml:"base_radius"`
	CollectionDuration float64 `yaml:"collection_duration"`
	TargetTolerance    float64 `yaml:"target_tolerance"`
	Movement           string  `yaml:"movement"`  // steering | path
	Heuristic          string  `yaml:"heuristic"` // manhattan | octile
}

// Run controls the tick loop.
type Run struct {
	Ticks       uint64  `yaml:"ticks"` // 0 runs in real time until interrupted
	Dt          float64 `yaml:"dt"`    // Fixed step for headless runs
	Speed       float64 `yaml:"speed"` // Real-time multiplier
	ReportEvery uint64  `yaml:"report_every"`
}

// Output names the optional run artifacts. Empty disables one.
type Output struct {
	Journal  string `yaml:"journal"`
	Trace    string `yaml:"trace"`
	Snapshot string `yaml:"snapshot"`
}

// Log configures the slog handler.
type Log struct {
	Level string `yaml:"level"`
}

// Default mirrors engine.DefaultSetup.
func Default() Config {
	s := engine.DefaultSetup()
	g := s.Gen

	c := Config{
		World: World{
			Width:          g.Width,
			Height:         g.Height,
			CellSize:       g.CellSize,
			Seed:           g.Seed,
			NoiseScale:     g.NoiseScale,
			NoiseThreshold: g.NoiseThreshold,
			ClutterChance:  g.ClutterChance,
			WallCount:      g.WallCount,
			WallMinLen:     g.WallMinLen,
			WallMaxLen:     g.WallMaxLen,
			WallMinGrid:    g.WallMinGrid,
			SafeRadius:     g.SafeRadius,
		},
		Explored: Explored{CellSize: s.ExploredCellSize},
		Base:     Point{X: s.Base.X(), Y: s.Base.Y()},
		Resources: Resources{
			Random: s.RandomResources,
		},
		Agents: Agents{
			Miners:             s.Miners,
			ExplorerSpeed:      s.ExplorerSpeed,
			MinerSpeed:         s.MinerSpeed,
			WanderTurnInterval: s.Wander.TurnInterval,
			WanderEdgeMargin:   s.Wander.EdgeMargin,
		},
		Dispatch: Dispatch{
			DiscoveryRadius:    s.Dispatch.DiscoveryRadius,
			ArrivalRadius:      s.Dispatch.ArrivalRadius,
			BaseRadius:         s.Dispatch.BaseRadius,
			CollectionDuration: s.Dispatch.CollectionDuration,
			TargetTolerance:    s.Dispatch.TargetTolerance,
			Movement:           s.Dispatch.Movement.String(),
			Heuristic:          "manhattan",
		},
		Run: Run{
			Dt:          1.0 / engine.DefaultTickRate,
			Speed:       1.0,
			ReportEvery: engine.DefaultReportEvery,
		},
		Log: Log{Level: "info"},
	}
	for _, sp := range s.Spawns {
		c.Resources.Spawns = append(c.Resources.Spawns, Spawn{
			Kind: sp.Kind.String(),
			X:    sp.Position.X(),
			Y:    sp.Position.Y(),
		})
	}
	return c
}

// Load reads a YAML file over the defaults, applies environment overrides
// and validates the result.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.ApplyEnv(); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() error {
	v := os.Getenv(SeedEnv)
	if v == "" {
		return nil
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, SeedEnv, v)
	}
	c.World.Seed = seed
	return nil
}

// Validate checks the config by building the session setup from it.
func (c Config) Validate() error {
	if _, err := c.Setup(); err != nil {
		return err
	}
	if c.Run.Dt <= 0 {
		return fmt.Errorf("%w: run.dt %g", ErrInvalidConfig, c.Run.Dt)
	}
	if c.Run.Speed < 0 {
		return fmt.Errorf("%w: run.speed %g", ErrInvalidConfig, c.Run.Speed)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// GenConfig returns the world generation tuning.
func (c Config) GenConfig() world.GenConfig {
	w := c.World
	return world.GenConfig{
		Width:          w.Width,
		Height:         w.Height,
		CellSize:       w.CellSize,
		Seed:           w.Seed,
		NoiseScale:     w.NoiseScale,
		NoiseThreshold: w.NoiseThreshold,
		ClutterChance:  w.ClutterChance,
		WallCount:      w.WallCount,
		WallMinLen:     w.WallMinLen,
		WallMaxLen:     w.WallMaxLen,
		WallMinGrid:    w.WallMinGrid,
		SafeRadius:     w.SafeRadius,
	}
}

// Setup converts the config into a validated engine setup.
func (c Config) Setup() (engine.Setup, error) {
	movement, ok := engine.ParseMovementMode(c.Dispatch.Movement)
	if !ok {
		return engine.Setup{}, fmt.Errorf("%w: dispatch.movement %q", ErrInvalidConfig, c.Dispatch.Movement)
	}
	heuristic, ok := pathfind.HeuristicByName(c.Dispatch.Heuristic)
	if !ok {
		return engine.Setup{}, fmt.Errorf("%w: dispatch.heuristic %q", ErrInvalidConfig, c.Dispatch.Heuristic)
	}

	spawns := make([]world.SpawnPoint, 0, len(c.Resources.Spawns))
	for i, sp := range c.Resources.Spawns {
		kind, ok := world.ParseResourceKind(sp.Kind)
		if !ok {
			return engine.Setup{}, fmt.Errorf("%w: resources.spawns[%d].kind %q", ErrInvalidConfig, i, sp.Kind)
		}
		spawns = append(spawns, world.SpawnPoint{Kind: kind, Position: orb.Point{sp.X, sp.Y}})
	}

	s := engine.Setup{
		Gen:              c.GenConfig(),
		ExploredCellSize: c.Explored.CellSize,
		Base:             orb.Point{c.Base.X, c.Base.Y},
		Spawns:           spawns,
		RandomResources:  c.Resources.Random,
		Miners:           c.Agents.Miners,
		ExplorerSpeed:    c.Agents.ExplorerSpeed,
		MinerSpeed:       c.Agents.MinerSpeed,
		Wander: agents.WanderConfig{
			TurnInterval: c.Agents.WanderTurnInterval,
			EdgeMargin:   c.Agents.WanderEdgeMargin,
		},
		Dispatch: engine.DispatchParams{
			DiscoveryRadius:    c.Dispatch.DiscoveryRadius,
			ArrivalRadius:      c.Dispatch.ArrivalRadius,
			BaseRadius:         c.Dispatch.BaseRadius,
			CollectionDuration: c.Dispatch.CollectionDuration,
			TargetTolerance:    c.Dispatch.TargetTolerance,
			Movement:           movement,
			Heuristic:          heuristic,
		},
	}
	if err := s.Validate(); err != nil {
		return engine.Setup{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return s, nil
}

// LogLevel parses log.level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return lvl, nil
}

// Marshal renders the config as YAML, as recorded in the run journal.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
