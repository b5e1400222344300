// Package journal records a single expedition run in SQLite: the run header,
// every lifecycle event, and the final statistics. It is write-mostly; the
// simulation never restores from it.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	_ "modernc.org/sqlite"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/engine"
)

// DB wraps a SQLite connection holding the journal of one run.
type DB struct {
	conn *sqlx.DB
}

// Run is the header row of a journaled run.
type Run struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	Config    string `db:"config"` // YAML as loaded
	StartedAt string `db:"started_at"`
	LastTick  uint64 `db:"last_tick"`
	Stats     string `db:"stats"` // engine.SimStats as JSON, set by FinishRun
}

type eventRow struct {
	ID          int64         `db:"id"`
	RunID       string        `db:"run_id"`
	Tick        uint64        `db:"tick"`
	Kind        string        `db:"kind"`
	AgentID     sql.NullInt64 `db:"agent_id"`
	ResourceID  sql.NullInt64 `db:"resource_id"`
	X           float64       `db:"x"`
	Y           float64       `db:"y"`
	Description string        `db:"description"`
}

// Open creates a fresh journal at path. Tables from any earlier run are
// dropped.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.reset(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reset journal: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) reset() error {
	schema := `
	DROP TABLE IF EXISTS events;
	DROP TABLE IF EXISTS runs;

	CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		config TEXT NOT NULL,
		started_at TEXT NOT NULL,
		last_tick INTEGER NOT NULL DEFAULT 0,
		stats TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent_id INTEGER,
		resource_id INTEGER,
		x REAL NOT NULL,
		y REAL NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX idx_events_kind ON events(kind);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun records a new run and returns its ID.
func (db *DB) BeginRun(seed int64, cfgYAML []byte) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, config, started_at) VALUES (?, ?, ?, ?)",
		id, seed, string(cfgYAML), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	slog.Debug("journal run started", "run", id, "seed", seed)
	return id, nil
}

// SaveEvents appends events for a run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, kind, agent_id, resource_id, x, y, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var agentID, resourceID sql.NullInt64
		if e.AgentID != nil {
			agentID = sql.NullInt64{Int64: int64(*e.AgentID), Valid: true}
		}
		if e.ResourceID != nil {
			resourceID = sql.NullInt64{Int64: int64(*e.ResourceID), Valid: true}
		}
		if _, err := stmt.Exec(runID, e.Tick, string(e.Kind), agentID, resourceID,
			e.Position.X(), e.Position.Y(), e.Description); err != nil {
			return fmt.Errorf("insert %s event: %w", e.Kind, err)
		}
	}

	return tx.Commit()
}

// FinishRun stores the final tick and statistics of a run.
func (db *DB) FinishRun(runID string, lastTick uint64, stats engine.SimStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec("UPDATE runs SET last_tick = ?, stats = ? WHERE id = ?",
		lastTick, string(statsJSON), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// GetRun loads a run header.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, seed, config, started_at, last_tick, stats FROM runs WHERE id = ?", runID)
	return r, err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		`SELECT id, run_id, tick, kind, agent_id, resource_id, x, y, description
		 FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = r.event()
	}
	return events, nil
}

// CountByKind tallies a run's events by kind.
func (db *DB) CountByKind(runID string) (map[engine.EventKind]int, error) {
	var rows []struct {
		Kind string `db:"kind"`
		N    int    `db:"n"`
	}
	err := db.conn.Select(&rows,
		"SELECT kind, COUNT(*) AS n FROM events WHERE run_id = ? GROUP BY kind", runID)
	if err != nil {
		return nil, err
	}

	counts := make(map[engine.EventKind]int, len(rows))
	for _, r := range rows {
		counts[engine.EventKind(r.Kind)] = r.N
	}
	return counts, nil
}

func (r eventRow) event() engine.Event {
	e := engine.Event{
		Tick:        r.Tick,
		Kind:        engine.EventKind(r.Kind),
		Position:    orb.Point{r.X, r.Y},
		Description: r.Description,
	}
	if r.AgentID.Valid {
		id := agents.AgentID(r.AgentID.Int64)
		e.AgentID = &id
	}
	if r.ResourceID.Valid {
		id := engine.ResourceID(r.ResourceID.Int64)
		e.ResourceID = &id
	}
	return e
}
