// Package engine provides the simulation session, its tick pipeline, and the
// loop that drives it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Tick schedule defaults.
const (
	DefaultTickRate    = 60   // Ticks per real second
	DefaultReportEvery = 600  // Ticks between OnReport calls (10 sim-seconds at 60 Hz)
	MaxStep            = 0.25 // Largest dt handed to OnTick, in simulated seconds
)

// Engine drives the simulation forward.
type Engine struct {
	Tick        uint64        // Current tick counter (monotonic, never resets)
	Speed       float64       // Multiplier on measured time: 1.0 = real-time, 0 = paused
	Interval    time.Duration // Target wall-clock time per tick
	ReportEvery uint64        // OnReport cadence in ticks; 0 disables

	// Callbacks, populated during setup.
	OnTick   func(tick uint64, dt float64) // Every tick
	OnReport func(tick uint64)             // Every ReportEvery ticks

	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:       1.0,
		Interval:    time.Second / DefaultTickRate,
		ReportEvery: DefaultReportEvery,
	}
}

// Running reports whether a loop is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run ticks in real time until ctx is done or Stop is called. Each tick gets
// the measured wall-clock time since the previous one, scaled by Speed and
// capped at MaxStep.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed, "interval", e.Interval)

	last := time.Now()
	for e.running.Load() && ctx.Err() == nil {
		if e.Speed <= 0 {
			// Paused. Sleep briefly and check again.
			sleepCtx(ctx, 100*time.Millisecond)
			last = time.Now()
			continue
		}

		start := time.Now()
		dt := math.Min(start.Sub(last).Seconds()*e.Speed, MaxStep)
		last = start

		e.step(dt)

		// Sleep for the remainder of the tick interval.
		if elapsed := time.Since(start); elapsed < e.Interval {
			sleepCtx(ctx, e.Interval-elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// RunFixed runs n ticks back to back with a constant dt. Stop ends it early.
func (e *Engine) RunFixed(n uint64, dt float64) {
	e.running.Store(true)
	defer e.running.Store(false)

	for i := uint64(0); i < n && e.running.Load(); i++ {
		e.step(dt)
	}
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick.
func (e *Engine) step(dt float64) {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick, dt)
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SimTime formats simulated seconds as m:ss.mmm.
func SimTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
