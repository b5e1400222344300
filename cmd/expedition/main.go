// Command expedition runs the explorer/miner simulation headless, optionally
// recording a journal, a per-tick trace and a final map snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/crystal-expedition/internal/agents"
	"github.com/talgya/crystal-expedition/internal/config"
	"github.com/talgya/crystal-expedition/internal/engine"
	"github.com/talgya/crystal-expedition/internal/entropy"
	"github.com/talgya/crystal-expedition/internal/journal"
	"github.com/talgya/crystal-expedition/internal/trace"
)

func main() {
	var (
		configPath   = flag.String("config", "", "scenario YAML (built-in defaults when empty)")
		ticks        = flag.Uint64("ticks", 0, "run this many fixed-step ticks, then exit (0 = config run.ticks)")
		journalPath  = flag.String("journal", "", "SQLite journal path (overrides output.journal)")
		tracePath    = flag.String("trace", "", "zstd JSONL trace path (overrides output.trace)")
		snapshotPath = flag.String("snapshot", "", "GeoJSON snapshot written on exit (overrides output.snapshot)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *ticks > 0 {
		cfg.Run.Ticks = *ticks
	}
	override(&cfg.Output.Journal, *journalPath)
	override(&cfg.Output.Trace, *tracePath)
	override(&cfg.Output.Snapshot, *snapshotPath)

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("expedition failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(cfg config.Config) error {
	cfg.World.Seed = entropy.Resolve(cfg.World.Seed)
	seed := cfg.World.Seed

	// ── Simulation ────────────────────────────────────────────────────
	setup, err := cfg.Setup()
	if err != nil {
		return err
	}
	sim, err := engine.NewSimulation(setup)
	if err != nil {
		return err
	}

	cfgYAML, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// ── Journal ───────────────────────────────────────────────────────
	runID := uuid.NewString()
	var db *journal.DB
	if cfg.Output.Journal != "" {
		db, err = journal.Open(cfg.Output.Journal)
		if err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.BeginRun(seed, cfgYAML); err != nil {
			return err
		}
		slog.Info("journal opened", "path", cfg.Output.Journal, "run", runID)
	}

	// ── Trace ─────────────────────────────────────────────────────────
	var tw *trace.Writer
	if cfg.Output.Trace != "" {
		tw, err = trace.NewWriter(cfg.Output.Trace)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer tw.Close()
		if err := tw.WriteHeader(trace.NewHeader(runID, seed, sim)); err != nil {
			return fmt.Errorf("write trace header: %w", err)
		}
		slog.Info("trace opened", "path", cfg.Output.Trace)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Speed = cfg.Run.Speed
	eng.ReportEvery = cfg.Run.ReportEvery

	var pending []engine.Event
	flush := func() {
		if db == nil || len(pending) == 0 {
			return
		}
		if err := db.SaveEvents(runID, pending); err != nil {
			slog.Error("journal save failed", "error", err)
		}
		pending = pending[:0]
	}

	eng.OnTick = func(_ uint64, dt float64) {
		events := sim.Tick(dt)
		pending = append(pending, events...)
		if tw != nil {
			if err := tw.WriteFrame(trace.FrameOf(sim, events)); err != nil {
				slog.Error("trace write failed, disabling trace", "error", err)
				tw.Close()
				tw = nil
			}
		}
	}
	eng.OnReport = func(uint64) {
		flush()
		report(sim)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
		cancel()
	}()

	fmt.Printf("\nExpedition %s: %d miners, %d deposits on a %s grid (seed %d).\n",
		runID, len(sim.Miners), len(sim.Resources), sim.Grid.String(), seed)

	if cfg.Run.Ticks > 0 {
		eng.RunFixed(cfg.Run.Ticks, cfg.Run.Dt)
	} else {
		fmt.Println("Running in real time... (Ctrl+C to stop)")
		eng.Run(ctx)
	}
	flush()

	// ── Shutdown ──────────────────────────────────────────────────────
	if db != nil {
		if err := db.FinishRun(runID, sim.CurrentTick(), sim.Stats); err != nil {
			slog.Error("journal finish failed", "error", err)
		}
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			slog.Error("trace close failed", "error", err)
		}
	}
	if cfg.Output.Snapshot != "" {
		if err := trace.WriteSnapshot(cfg.Output.Snapshot, sim); err != nil {
			slog.Error("snapshot failed", "error", err)
		} else {
			slog.Info("snapshot written", "path", cfg.Output.Snapshot)
		}
	}

	summarize(sim, db, runID, cfg.Output.Trace)
	return nil
}

func report(sim *engine.Simulation) {
	roles := sim.RoleCounts()
	slog.Info("expedition status",
		"tick", humanize.Comma(int64(sim.CurrentTick())),
		"clock", engine.SimTime(sim.Clock),
		"explorer", sim.ExplorerMode.String(),
		"idle", roles[agents.RoleIdle],
		"active", roles[agents.RoleActive],
		"returning", roles[agents.RoleReturning],
		"deposits_left", len(sim.LiveResources()),
		"explored", fmt.Sprintf("%.1f%%", sim.Explored.Coverage()*100),
	)
}

func summarize(sim *engine.Simulation, db *journal.DB, runID, tracePath string) {
	fmt.Printf("\nRan %s ticks (%s simulated).\n",
		humanize.Comma(int64(sim.CurrentTick())), engine.SimTime(sim.Clock))
	fmt.Printf("Discovered %d, abandoned %d, removed %d; explored %.1f%% of the map.\n",
		sim.Stats.Discovered, sim.Stats.Abandoned, sim.Stats.Removed, sim.Explored.Coverage()*100)

	kinds := make([]string, 0, len(sim.Stats.Collected))
	for k := range sim.Stats.Collected {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  collected %-8s %s\n", k, humanize.Comma(int64(sim.Stats.Collected[k])))
	}

	if db != nil {
		if counts, err := db.CountByKind(runID); err == nil {
			total := 0
			for _, n := range counts {
				total += n
			}
			fmt.Printf("Journal: %s events recorded.\n", humanize.Comma(int64(total)))
		}
	}
	if tracePath != "" {
		if fi, err := os.Stat(tracePath); err == nil {
			fmt.Printf("Trace: %s (%s).\n", tracePath, humanize.Bytes(uint64(fi.Size())))
		}
	}
}
