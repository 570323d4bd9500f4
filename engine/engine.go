package engine

import (
	"errors"
	"time"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/profiler"
	"github.com/Carmen-Shannon/oxy-donut/engine/window"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine has no window")

const (
	defaultTickRate    = 60.0
	defaultMaxCatchUp  = 5
	defaultIdleTimeout = 100 * time.Millisecond
)

// engine implements the Engine interface.
// Everything runs on the goroutine that calls Run: event dispatch, ticks and paints
// never overlap.
type engine struct {
	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickInterval time.Duration
	maxCatchUp   int
	now          func() time.Time

	tickCallback   func(deltaTime float32)
	paintCallback  func()
	resizeCallback func(width, height int)

	nextTick      time.Time
	redraw        bool
	quit          bool
	droppedTicks  uint64
	executedTicks uint64
}

// Engine drives the demo: it waits for window events, runs fixed-rate ticks when due,
// and paints when a redraw has been requested.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// SetTickCallback registers the function called once per fixed tick.
	//
	// Parameters:
	//   - callback: function receiving the fixed tick interval in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetPaintCallback registers the function that draws a frame. It is only called
	// after RequestRedraw.
	//
	// Parameters:
	//   - callback: the paint function
	SetPaintCallback(callback func())

	// SetResizeCallback registers the function called with the new framebuffer size.
	// A redraw is requested after it returns.
	//
	// Parameters:
	//   - callback: function receiving width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// RequestRedraw schedules one paint at the end of the current loop iteration.
	// Multiple requests before the paint coalesce.
	RequestRedraw()

	// TickInterval returns the fixed tick period.
	TickInterval() time.Duration

	// Run loops until the window closes or Quit is called. Must be called on the
	// thread that created the window.
	//
	// Returns:
	//   - error: ErrNoWindow if no window was configured
	Run() error

	// Quit makes Run return after the current iteration. Safe to call more than once.
	Quit()
}

// NewEngine creates a new Engine with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, tick rate, profiling)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickInterval: tickIntervalFor(defaultTickRate),
		maxCatchUp:   defaultMaxCatchUp,
		now:          time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profilingEnabled && e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithClock(e.now))
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.resizeCallback != nil {
				e.resizeCallback(width, height)
			}
			e.RequestRedraw()
		})
	}

	return e
}

func tickIntervalFor(rate float64) time.Duration {
	if rate <= 0 {
		rate = defaultTickRate
	}
	return time.Duration(float64(time.Second) / rate)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetPaintCallback(callback func()) {
	e.paintCallback = callback
}

func (e *engine) SetResizeCallback(callback func(width, height int)) {
	e.resizeCallback = callback
}

func (e *engine) RequestRedraw() {
	e.redraw = true
}

func (e *engine) TickInterval() time.Duration {
	return e.tickInterval
}

func (e *engine) Quit() {
	e.quit = true
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}

	e.quit = false
	e.nextTick = e.now().Add(e.tickInterval)
	e.redraw = true

	common.Logger().Info("engine running", "tick_interval", e.tickInterval)
	for !e.quit && e.window.IsRunning() {
		e.step()
	}
	common.Logger().Info("engine stopped", "ticks", e.executedTicks, "dropped_ticks", e.droppedTicks)
	return nil
}

// step runs one loop iteration: wait for events or the next tick, run due ticks, paint.
func (e *engine) step() {
	timeout := e.nextTick.Sub(e.now())
	if e.redraw {
		timeout = 0
	}
	if timeout > defaultIdleTimeout {
		timeout = defaultIdleTimeout
	}
	e.window.PollEvents(timeout)

	e.runDueTicks(e.now())

	if e.redraw && !e.quit {
		e.redraw = false
		if e.paintCallback != nil {
			e.paintCallback()
		}
		if e.profiler != nil {
			e.profiler.Frame()
		}
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Sample()
	}
}

// runDueTicks executes every tick scheduled at or before now, at most maxCatchUp of them.
// The schedule always advances past now so a long stall does not cause a burst later.
//
// Returns:
//   - int: the number of ticks executed
func (e *engine) runDueTicks(now time.Time) int {
	if now.Before(e.nextTick) {
		return 0
	}

	due := int(now.Sub(e.nextTick)/e.tickInterval) + 1
	e.nextTick = e.nextTick.Add(time.Duration(due) * e.tickInterval)

	run := due
	if e.maxCatchUp > 0 && run > e.maxCatchUp {
		dropped := run - e.maxCatchUp
		e.droppedTicks += uint64(dropped)
		common.Logger().Warn("dropping late ticks", "due", due, "dropped", dropped)
		run = e.maxCatchUp
	}

	dt := float32(e.tickInterval.Seconds())
	for i := 0; i < run; i++ {
		if e.tickCallback != nil {
			e.tickCallback(dt)
		}
		if e.profiler != nil {
			e.profiler.Tick()
		}
	}
	e.executedTicks += uint64(run)
	return run
}
