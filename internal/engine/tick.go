// Package engine provides the fixed-rate tick loop and the simulation state
// it drives.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// DefaultTPS is the simulation rate in ticks per second.
const DefaultTPS = 60

// Engine drives the simulation forward at a fixed tick rate.
type Engine struct {
	Tick uint64 // Current tick counter (monotonic, never resets)
	TPS  int    // Ticks per simulated second

	// Layer periods in ticks; zero disables the layer.
	SpawnEvery  uint64
	ReportEvery uint64
	SaveEvery   uint64

	// Callbacks, populated during setup. Within one step they fire in
	// declaration order, so spawning always precedes steering.
	OnSpawn  func(tick uint64)
	OnTick   func(tick uint64, dt float64)
	OnReport func(tick uint64)
	OnSave   func(tick uint64)

	running atomic.Bool
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{TPS: DefaultTPS}
	e.SetSpeed(1.0)
	return e
}

// Speed returns the real-time multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the real-time multiplier. Safe to call while Run is active.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// Dt returns the simulated seconds covered by one tick.
func (e *Engine) Dt() float64 {
	if e.TPS <= 0 {
		return 1.0 / DefaultTPS
	}
	return 1.0 / float64(e.TPS)
}

// EveryTicks converts a period in seconds to a tick count, never below one.
func (e *Engine) EveryTicks(seconds float64) uint64 {
	n := uint64(seconds/e.Dt() + 0.5)
	if n == 0 {
		n = 1
	}
	return n
}

// PeriodTicks is EveryTicks for optional layers: a non-positive period
// disables the layer.
func (e *Engine) PeriodTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return e.EveryTicks(seconds)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed(), "tps", e.TPS)

	interval := time.Duration(float64(time.Second) * e.Dt())
	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// RunTicks advances n ticks as fast as possible, without sleeping.
func (e *Engine) RunTicks(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.Step()
	}
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if due(e.Tick, e.SpawnEvery) && e.OnSpawn != nil {
		e.OnSpawn(e.Tick)
	}

	// Every tick: steering and animation.
	if e.OnTick != nil {
		e.OnTick(e.Tick, e.Dt())
	}

	if due(e.Tick, e.ReportEvery) && e.OnReport != nil {
		e.OnReport(e.Tick)
	}

	if due(e.Tick, e.SaveEvery) && e.OnSave != nil {
		e.OnSave(e.Tick)
	}
}

func due(tick, every uint64) bool {
	return every > 0 && tick%every == 0
}

// SimTime returns a human-readable elapsed time for a tick at the given rate.
func SimTime(tick uint64, tps int) string {
	if tps <= 0 {
		tps = DefaultTPS
	}
	total := tick / uint64(tps)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
