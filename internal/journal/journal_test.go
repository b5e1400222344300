package journal_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crystal-expedition/internal/engine"
	"github.com/talgya/crystal-expedition/internal/journal"
)

func openTemp(t *testing.T) (*journal.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := journal.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

// runSession plays a default session long enough to produce spawn, discovery
// and dispatch events.
func runSession(t *testing.T, ticks int) (*engine.Simulation, []engine.Event) {
	t.Helper()
	sim, err := engine.NewSimulation(engine.DefaultSetup())
	require.NoError(t, err)
	var events []engine.Event
	for i := 0; i < ticks; i++ {
		events = append(events, sim.Tick(1.0/60)...)
	}
	return sim, events
}

func TestJournal_EventsRoundTrip(t *testing.T) {
	db, _ := openTemp(t)
	runID, err := db.BeginRun(42, []byte("world:\n  seed: 42\n"))
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	sim, events := runSession(t, 1800)
	require.NotEmpty(t, events)
	require.NoError(t, db.SaveEvents(runID, events))
	require.NoError(t, db.SaveEvents(runID, nil))

	recent, err := db.RecentEvents(runID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	last := len(events) - 1
	assert.Equal(t, events[last], recent[0])
	assert.Equal(t, events[last-2], recent[2])

	counts, err := db.CountByKind(runID)
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, len(events), total)
	assert.Equal(t, len(sim.Resources), counts[engine.EventSpawn])

	require.NoError(t, db.FinishRun(runID, sim.CurrentTick(), sim.Stats))
	run, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, uint64(1800), run.LastTick)

	var stats engine.SimStats
	require.NoError(t, json.Unmarshal([]byte(run.Stats), &stats))
	assert.Equal(t, sim.Stats.Discovered, stats.Discovered)
}

func TestJournal_OpenStartsFresh(t *testing.T) {
	db, path := openTemp(t)
	runID, err := db.BeginRun(1, nil)
	require.NoError(t, err)
	_, events := runSession(t, 1)
	require.NoError(t, db.SaveEvents(runID, events))
	require.NoError(t, db.Close())

	again, err := journal.Open(path)
	require.NoError(t, err)
	defer again.Close()

	_, err = again.GetRun(runID)
	assert.Error(t, err)
	counts, err := again.CountByKind(runID)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestJournal_FinishUnknownRun(t *testing.T) {
	db, _ := openTemp(t)
	assert.Error(t, db.FinishRun("nope", 1, engine.SimStats{}))
}
