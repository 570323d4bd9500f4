package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-donut/common"
)

// Stats is one reporting window's worth of measurements.
type Stats struct {
	FramesPerSecond float64
	TicksPerSecond  float64
	HeapMB          float64
	AllocRateMB     float64 // MB allocated per second during the window
	SysMB           float64
	GCCount         uint32
	LastPauseUs     uint64
	MaxPauseUs      uint64 // longest GC pause within the window
}

// Profiler tracks paint rate, tick rate and memory statistics.
// It logs a summary at Info level once per update interval.
type Profiler struct {
	frameCount     int
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often Sample reports. Values <= 0 keep the 1s default.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - opts: variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Frame records one painted frame.
func (p *Profiler) Frame() {
	p.frameCount++
}

// Tick records one animation tick.
func (p *Profiler) Tick() {
	p.tickCount++
}

// Sample reports and resets the counters once the update interval has elapsed.
//
// Returns:
//   - Stats: the measurements for the elapsed window
//   - bool: true if a window closed and was logged, false otherwise
func (p *Profiler) Sample() (Stats, bool) {
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	seconds := elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		FramesPerSecond: float64(p.frameCount) / seconds,
		TicksPerSecond:  float64(p.tickCount) / seconds,
		HeapMB:          float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:           float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:     float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:         p.memStats.NumGC,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info("profiler",
		"fps", s.FramesPerSecond,
		"tps", s.TicksPerSecond,
		"heap_mb", s.HeapMB,
		"alloc_mb_s", s.AllocRateMB,
		"gc", s.GCCount,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.frameCount = 0
	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}
