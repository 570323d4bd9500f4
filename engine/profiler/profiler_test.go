package profiler

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestSample(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		ticks      int
		advance    time.Duration
		wantReport bool
		wantFPS    float64
		wantTPS    float64
	}{
		{"before interval", 10, 10, 500 * time.Millisecond, false, 0, 0},
		{"exactly one second", 30, 60, time.Second, true, 30, 60},
		{"two seconds", 120, 120, 2 * time.Second, true, 60, 60},
		{"no activity", 0, 0, time.Second, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := &fakeClock{t: time.Unix(1000, 0)}
			p := NewProfiler(WithClock(clk.now))
			for i := 0; i < tt.frames; i++ {
				p.Frame()
			}
			for i := 0; i < tt.ticks; i++ {
				p.Tick()
			}
			clk.t = clk.t.Add(tt.advance)

			s, ok := p.Sample()
			if ok != tt.wantReport {
				t.Fatalf("Sample() reported = %v, want %v", ok, tt.wantReport)
			}
			if !ok {
				return
			}
			if s.FramesPerSecond != tt.wantFPS {
				t.Errorf("FramesPerSecond = %v, want %v", s.FramesPerSecond, tt.wantFPS)
			}
			if s.TicksPerSecond != tt.wantTPS {
				t.Errorf("TicksPerSecond = %v, want %v", s.TicksPerSecond, tt.wantTPS)
			}
			if s.HeapMB <= 0 || s.SysMB <= 0 {
				t.Errorf("memory stats not populated: %+v", s)
			}
		})
	}
}

func TestSampleResetsCounters(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clk.now), WithInterval(100*time.Millisecond))
	p.Frame()
	p.Frame()
	clk.t = clk.t.Add(100 * time.Millisecond)
	if _, ok := p.Sample(); !ok {
		t.Fatal("expected first window to report")
	}
	if _, ok := p.Sample(); ok {
		t.Fatal("window reported again without time passing")
	}

	clk.t = clk.t.Add(100 * time.Millisecond)
	s, ok := p.Sample()
	if !ok {
		t.Fatal("expected second window to report")
	}
	if s.FramesPerSecond != 0 {
		t.Errorf("frames carried over: fps = %v", s.FramesPerSecond)
	}
}

func TestOptionsIgnoreInvalid(t *testing.T) {
	p := NewProfiler(WithInterval(-1), WithClock(nil))
	if p.updateInterval != time.Second {
		t.Errorf("updateInterval = %v, want 1s", p.updateInterval)
	}
	if p.now == nil {
		t.Error("nil clock replaced default")
	}
}
