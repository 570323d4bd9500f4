package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-donut/engine/profiler"
	"github.com/Carmen-Shannon/oxy-donut/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the once-per-second profiler log.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler enables profiling with a caller-configured Profiler.
//
// Parameters:
//   - p: the profiler to feed
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
		e.profilingEnabled = p != nil
	}
}

// WithTickRate sets the tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - rate: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(rate float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickInterval = tickIntervalFor(rate)
	}
}

// WithMaxCatchUpTicks bounds how many overdue ticks run in one iteration after a stall.
// Overdue ticks beyond the bound are dropped. 0 disables the bound.
//
// Parameters:
//   - n: the most ticks to run per iteration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxCatchUpTicks(n int) EngineBuilderOption {
	return func(e *engine) {
		if n >= 0 {
			e.maxCatchUp = n
		}
	}
}

// WithWindow sets the window the engine polls and runs against.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithClock replaces time.Now as the engine's time source.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}
