package trace

import (
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/talgya/crystal-expedition/internal/engine"
	"github.com/talgya/crystal-expedition/internal/world"
)

// Snapshot layer names, stored in each feature's "layer" property.
const (
	LayerBounds   = "bounds"
	LayerObstacle = "obstacle"
	LayerExplored = "explored"
	LayerResource = "resource"
	LayerBase     = "base"
	LayerAgent    = "agent"
)

// Snapshot renders the current session as a GeoJSON feature collection in
// world coordinates.
func Snapshot(sim *engine.Simulation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	add := func(g orb.Geometry, layer string, props geojson.Properties) {
		f := geojson.NewFeature(g)
		for k, v := range props {
			f.Properties[k] = v
		}
		f.Properties["layer"] = layer
		fc.Append(f)
	}

	add(sim.Grid.Bounds.Rect().ToPolygon(), LayerBounds, geojson.Properties{
		"cell_size": sim.Grid.Bounds.CellSize,
		"seed":      sim.Grid.Seed,
	})

	sim.Grid.Each(func(c world.Cell, occupied bool) {
		if occupied {
			add(sim.Grid.Bounds.CellBound(c).ToPolygon(), LayerObstacle, geojson.Properties{
				"col": c.Col, "row": c.Row,
			})
		}
	})

	eb := sim.Explored.Bounds
	sim.Explored.EachSeen(func(c world.Cell) {
		add(eb.CellBound(c).ToPolygon(), LayerExplored, nil)
	})

	for _, r := range sim.Resources {
		add(r.Position, LayerResource, geojson.Properties{
			"id":     r.ID,
			"kind":   r.Kind.String(),
			"exists": r.Exists,
			"target": sim.Target != nil && sim.Target.Resource == r.ID,
		})
	}

	add(sim.Base, LayerBase, nil)

	for _, a := range sim.Agents {
		props := geojson.Properties{
			"id":      a.ID,
			"kind":    a.Kind.String(),
			"role":    a.Role.String(),
			"heading": a.Heading,
		}
		add(a.Position, LayerAgent, props)
		if !a.Route.Done() {
			add(a.Route.Path, LayerAgent, geojson.Properties{"id": a.ID, "route": true})
		}
	}
	return fc
}

// WriteSnapshot writes Snapshot(sim) to path.
func WriteSnapshot(path string, sim *engine.Simulation) error {
	data, err := Snapshot(sim).MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
