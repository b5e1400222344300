// Obstacle generation using simplex noise, random clutter and carved walls.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ErrInvalidGen is returned when generation parameters are out of range.
var ErrInvalidGen = errors.New("invalid generation config")

// GenConfig holds obstacle generation parameters.
type GenConfig struct {
	Width    float64 // World width in world units
	Height   float64 // World height in world units
	CellSize float64 // Obstacle cell edge length
	Seed     int64   // Seeds noise and every random pass

	NoiseScale     float64 // Noise sample step per cell
	NoiseThreshold float64 // Occupied when noise exceeds this (noise range is roughly -1..1)
	ClutterChance  float64 // Chance a free cell becomes occupied after the noise pass

	WallCount   int // Straight wall segments carved into large grids
	WallMinLen  int // Inclusive, in cells
	WallMaxLen  int // Inclusive, in cells
	WallMinGrid int // Walls only when both grid sides reach this many cells

	SafeRadius int // Cells cleared around the grid center
}

// DefaultGenConfig returns the standard 800×600 world with 20-unit cells.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          800,
		Height:         600,
		CellSize:       20,
		Seed:           42,
		NoiseScale:     0.07,
		NoiseThreshold: 0.55,
		ClutterChance:  0.05,
		WallCount:      5,
		WallMinLen:     3,
		WallMaxLen:     9,
		WallMinGrid:    15,
		SafeRadius:     5,
	}
}

// SmallTestConfig returns a tiny 10×10 world for tests.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 100
	cfg.Height = 100
	cfg.CellSize = 10
	return cfg
}

// Bounds returns the world bounds described by the config.
func (cfg GenConfig) Bounds() (Bounds, error) {
	return NewBounds(cfg.Width, cfg.Height, cfg.CellSize)
}

// Validate checks the config without generating anything.
func (cfg GenConfig) Validate() error {
	if _, err := cfg.Bounds(); err != nil {
		return err
	}
	switch {
	case cfg.NoiseScale <= 0:
		return fmt.Errorf("%w: noise scale %g", ErrInvalidGen, cfg.NoiseScale)
	case cfg.ClutterChance < 0 || cfg.ClutterChance > 1:
		return fmt.Errorf("%w: clutter chance %g", ErrInvalidGen, cfg.ClutterChance)
	case cfg.WallCount < 0:
		return fmt.Errorf("%w: wall count %d", ErrInvalidGen, cfg.WallCount)
	case cfg.WallCount > 0 && (cfg.WallMinLen < 1 || cfg.WallMaxLen < cfg.WallMinLen):
		return fmt.Errorf("%w: wall length %d..%d", ErrInvalidGen, cfg.WallMinLen, cfg.WallMaxLen)
	case cfg.SafeRadius < MinGridCells/2:
		return fmt.Errorf("%w: safe radius %d below %d", ErrInvalidGen, cfg.SafeRadius, MinGridCells/2)
	}
	return nil
}

// GenerateGrid builds a grid with default tuning for the given dimensions.
func GenerateGrid(width, height, cellSize float64, seed int64) (*Grid, error) {
	cfg := DefaultGenConfig()
	cfg.Width = width
	cfg.Height = height
	cfg.CellSize = cellSize
	cfg.Seed = seed
	return Generate(cfg)
}

// Generate creates an obstacle grid. The result depends only on cfg: every
// random pass draws from its own stream derived from cfg.Seed.
func Generate(cfg GenConfig) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, _ := cfg.Bounds()

	g := NewGrid(b)
	g.Seed = cfg.Seed

	noise := opensimplex.New(cfg.Seed)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			v := noise.Eval2(float64(c)*cfg.NoiseScale, float64(r)*cfg.NoiseScale)
			g.cells[r][c] = v > cfg.NoiseThreshold
		}
	}

	// Post-pass: scattered clutter so blob edges are not perfectly smooth.
	addClutter(g, cfg.ClutterChance, cfg.Seed)

	// Post-pass: walls create chokepoints the noise alone rarely produces.
	if g.Rows() >= cfg.WallMinGrid && g.Cols() >= cfg.WallMinGrid {
		carveWalls(g, cfg, cfg.Seed)
	}

	// Safe spawn area around the center, always last.
	g.ClearSquare(g.Center(), cfg.SafeRadius)

	return g, nil
}

func addClutter(g *Grid, chance float64, seed int64) {
	if chance <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(seed + 100))
	for r := range g.cells {
		for c := range g.cells[r] {
			// Draw for every cell so the stream stays aligned regardless of
			// the noise outcome.
			roll := rng.Float64()
			if !g.cells[r][c] && roll < chance {
				g.cells[r][c] = true
			}
		}
	}
}

func carveWalls(g *Grid, cfg GenConfig, seed int64) {
	rng := rand.New(rand.NewSource(seed + 200))
	for i := 0; i < cfg.WallCount; i++ {
		start := Cell{Col: rng.Intn(g.Cols()), Row: rng.Intn(g.Rows())}
		length := cfg.WallMinLen + rng.Intn(cfg.WallMaxLen-cfg.WallMinLen+1)
		horizontal := rng.Intn(2) == 0

		for k := 0; k < length; k++ {
			cell := start
			if horizontal {
				cell.Col += k
			} else {
				cell.Row += k
			}
			g.Set(cell, true)
		}
	}
}
