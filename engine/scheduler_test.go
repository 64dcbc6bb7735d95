package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/starfield/field"
	"github.com/lixenwraith/starfield/parameter"
	"github.com/lixenwraith/starfield/render"
)

// paintCall records one FillCircle with the glow radius in effect at the time
type paintCall struct {
	x, y, r float64
	alpha   float64
	glow    float64
}

// stubSurface records draw calls for inspection
type stubSurface struct {
	mu      sync.Mutex
	width   int
	height  int
	glow    float64
	calls   []paintCall
	begins  int
	flushes int
	resize  chan render.ResizeEvent

	panicOnBegin bool

	// beginEntered signals frame entry; beginGate holds the frame in
	// flight until closed. Both nil by default
	beginEntered chan struct{}
	beginGate    chan struct{}
}

func newStubSurface(w, h int) *stubSurface {
	return &stubSurface{
		width:  w,
		height: h,
		resize: make(chan render.ResizeEvent, 1),
	}
}

func (s *stubSurface) Configure(width, height int, pixelRatio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *stubSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *stubSurface) Resizes() <-chan render.ResizeEvent {
	return s.resize
}

func (s *stubSurface) Begin(bg render.Gradient) {
	s.mu.Lock()
	s.begins++
	s.calls = s.calls[:0]
	panicNow := s.panicOnBegin
	entered := s.beginEntered
	gate := s.beginGate
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if panicNow {
		panic("begin failed")
	}
}

func (s *stubSurface) SetGlow(radius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glow = radius
}

func (s *stubSurface) FillCircle(x, y, r float64, c render.RGB, alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, paintCall{x: x, y: y, r: r, alpha: alpha, glow: s.glow})
}

func (s *stubSurface) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
}

func (s *stubSurface) Close() {}

func (s *stubSurface) snapshot() []paintCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]paintCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// testScheduler builds a scheduler stepped by hand through a ManualPacer
func testScheduler(cfgs []field.LayerConfig, surf render.Surface) (*Scheduler, *ManualPacer) {
	pacer := NewManualPacer(16 * time.Millisecond)
	s := New(Config{
		Layers: cfgs,
		Pacer:  pacer,
		Time:   pacer,
		Rand:   rand.New(rand.NewSource(42)),
	})
	s.Attach(surf)
	return s, pacer
}

func TestSchedulerLifecycle(t *testing.T) {
	surf := newStubSurface(320, 200)
	done := make(chan struct{}, 16)
	pacer := NewManualPacer(16 * time.Millisecond)
	s := New(Config{
		Pacer:     pacer,
		Time:      pacer,
		Rand:      rand.New(rand.NewSource(1)),
		FrameDone: done,
	})
	s.Attach(surf)

	if s.Running() {
		t.Error("Expected stopped state before Start")
	}

	s.Start()
	if !s.Running() {
		t.Error("Expected running state after Start")
	}

	pacer.Step(3)
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Expected frame completion signal")
		}
	}

	s.Stop()
	if s.Running() {
		t.Error("Expected stopped state after Stop")
	}
	if s.FrameCount() != 3 {
		t.Errorf("Expected 3 frames, got %d", s.FrameCount())
	}
}

func TestSchedulerConfigDefaults(t *testing.T) {
	s := New(Config{})
	if s.background != render.DefaultSky() {
		t.Errorf("Expected default sky background, got %+v", s.background)
	}
	if s.starColor != render.RgbStar {
		t.Errorf("Expected default star color, got %+v", s.starColor)
	}

	// A deliberate all-black gradient and tint must not be mistaken for
	// unset and replaced by the defaults
	black := render.Gradient{}
	tint := render.RGBBlack
	s = New(Config{Background: &black, Star: &tint})
	if s.background != black {
		t.Errorf("Expected all-black background kept, got %+v", s.background)
	}
	if s.starColor != tint {
		t.Errorf("Expected black star tint kept, got %+v", s.starColor)
	}
}

func TestSchedulerStopIdempotent(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	// Stop before any Start, then repeated stops
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("Expected stopped state")
	}
}

func TestSchedulerStartWithoutSurface(t *testing.T) {
	var logged []string
	s := New(Config{
		Log: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		},
	})

	s.Start()
	if s.Running() {
		t.Error("Expected start without surface to be refused")
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "no surface") {
		t.Errorf("Expected a no-surface log entry, got %v", logged)
	}

	// Retry after Attach succeeds
	s.Attach(newStubSurface(100, 100))
	s.Start()
	if !s.Running() {
		t.Error("Expected running state after Attach and Start")
	}
	s.Stop()
}

func TestSchedulerRestartResetsClock(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, pacer := testScheduler(nil, surf)

	s.Start()
	pacer.Step(5)
	s.Stop()

	if s.clock.Elapsed() == 0 {
		t.Fatal("Expected elapsed time after stepping")
	}

	s.Start()
	defer s.Stop()
	if s.clock.Elapsed() != 0 {
		t.Errorf("Expected clock reset on restart, got %v", s.clock.Elapsed())
	}
}

func TestSchedulerAttachSameSurfaceKeepsRunning(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Start()
	s.Attach(surf)
	if !s.Running() {
		t.Error("Expected re-attach of the same surface to be a no-op")
	}
	s.Stop()
}

func TestSchedulerDetach(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Start()
	s.Detach()
	if s.Running() {
		t.Error("Expected stopped state after Detach")
	}

	s.Detach()

	s.Start()
	if s.Running() {
		t.Error("Expected start after Detach to be refused")
	}
}

func TestSchedulerPaintOrder(t *testing.T) {
	cfgs := []field.LayerConfig{
		{Count: 5, DepthFactor: 0.5, Parallax: 0.3},
		{Count: 5, DepthFactor: 1.0, Parallax: 0.6},
		{Count: 5, DepthFactor: 1.6, Parallax: 1.0},
	}
	surf := newStubSurface(320, 200)
	s, _ := testScheduler(cfgs, surf)

	s.frame(surf)

	calls := surf.snapshot()
	if len(calls) != 15 {
		t.Fatalf("Expected 15 draw calls, got %d", len(calls))
	}

	// Back-to-front: each layer's stars are contiguous, distinguished by the
	// glow radius in effect when they were painted
	for i, call := range calls {
		wantGlow := cfgs[i/5].Glow
		if call.glow != wantGlow {
			t.Errorf("Call %d: expected glow %v, got %v", i, wantGlow, call.glow)
		}
	}
}

func TestSchedulerGlowPerLayer(t *testing.T) {
	cfgs := []field.LayerConfig{
		{Count: 2, DepthFactor: 1, Glow: 0},
		{Count: 2, DepthFactor: 1, Glow: 4},
	}
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(cfgs, surf)

	s.frame(surf)

	calls := surf.snapshot()
	if len(calls) != 4 {
		t.Fatalf("Expected 4 draw calls, got %d", len(calls))
	}
	for i, call := range calls[:2] {
		if call.glow != 0 {
			t.Errorf("Far layer call %d: expected glow 0, got %v", i, call.glow)
		}
	}
	for i, call := range calls[2:] {
		if call.glow != 4 {
			t.Errorf("Near layer call %d: expected glow 4, got %v", i, call.glow)
		}
	}
}

func TestSchedulerAlphaStaysInBand(t *testing.T) {
	cfgs := []field.LayerConfig{{Count: 50, DepthFactor: 1.6, SpeedY: 10}}
	surf := newStubSurface(320, 200)
	mock := NewMockTimeProvider(time.Unix(0, 0))
	s := New(Config{
		Layers: cfgs,
		Time:   mock,
		Rand:   rand.New(rand.NewSource(42)),
	})
	s.Attach(surf)

	// Enough frames for the fastest twinkle to bounce off both band edges
	for i := 0; i < 600; i++ {
		mock.Advance(16 * time.Millisecond)
		s.frame(surf)
	}

	for _, layer := range s.layers {
		for i, star := range layer.Stars {
			if star.Alpha < parameter.StarAlphaMin || star.Alpha > parameter.StarAlphaMax {
				t.Errorf("Star %d: alpha %v outside [%v, %v]",
					i, star.Alpha, parameter.StarAlphaMin, parameter.StarAlphaMax)
			}
		}
	}
}

func TestSchedulerStarsWrapVertically(t *testing.T) {
	const (
		frames = 300
		speedY = 50.0
		height = 50
	)
	cfgs := []field.LayerConfig{{Count: 20, DepthFactor: 1, SpeedY: speedY}}
	surf := newStubSurface(100, height)
	mock := NewMockTimeProvider(time.Unix(0, 0))
	s := New(Config{
		Layers: cfgs,
		Time:   mock,
		Rand:   rand.New(rand.NewSource(42)),
	})
	s.Attach(surf)

	wraps := make([]int, 20)
	prev := make([]float64, 20)
	for i, star := range s.layers[0].Stars {
		prev[i] = star.Y
	}
	for f := 0; f < frames; f++ {
		mock.Advance(16 * time.Millisecond)
		s.frame(surf)
		for i, star := range s.layers[0].Stars {
			if star.Y < prev[i] {
				wraps[i]++
			}
			prev[i] = star.Y
		}
	}

	// Eventual wrap, field never empties: every star respawns at least
	// floor(total travel / height) times, margin overhead included in the
	// frame count headroom
	step := speedY * (16 * time.Millisecond).Seconds()
	minWraps := int(frames * step / float64(height))
	for i, n := range wraps {
		if n < minWraps {
			t.Errorf("Star %d: expected at least %d wraps over %d frames, got %d",
				i, minWraps, frames, n)
		}
	}

	for i, star := range s.layers[0].Stars {
		if star.Y < -parameter.WrapMargin-1 || star.Y > height+parameter.WrapMargin+1 {
			t.Errorf("Star %d: y %v outside wrap band", i, star.Y)
		}
	}
}

func TestSchedulerResizeRegeneratesField(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Start()
	defer s.Stop()

	// The loop drains resize notifications without needing frame ticks
	surf.resize <- render.ResizeEvent{Width: 640, Height: 480, PixelRatio: 1}
	deadline := time.Now().Add(time.Second)
	for {
		if w, h := surf.Size(); w == 640 && h == 480 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected surface reconfigured to 640x480")
		}
		time.Sleep(time.Millisecond)
	}

	s.Stop()
	for _, layer := range s.layers {
		for i, star := range layer.Stars {
			if star.X < 0 || star.X > 640 || star.Y < 0 || star.Y > 480 {
				t.Errorf("Star %d: position (%v, %v) outside new extents", i, star.X, star.Y)
			}
		}
	}
}

func TestSchedulerMutateWhileRunning(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Start()

	applied := make(chan float64, 1)
	s.Mutate(func(layers []*field.Layer) {
		layers[0].Config.SpeedY = 99
		applied <- layers[0].Config.SpeedY
	})

	select {
	case v := <-applied:
		if v != 99 {
			t.Errorf("Expected speed 99, got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected mutation to run between frames")
	}
	s.Stop()

	if s.layers[0].Config.SpeedY != 99 {
		t.Errorf("Expected mutated speed to persist, got %v", s.layers[0].Config.SpeedY)
	}
}

func TestSchedulerMutateWhileStopped(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Mutate(func(layers []*field.Layer) {
		layers[0].Config.Glow = 7
	})
	if s.layers[0].Config.Glow != 7 {
		t.Errorf("Expected immediate mutation while stopped, got %v", s.layers[0].Config.Glow)
	}
}

func TestSchedulerMutationSurvivesRestart(t *testing.T) {
	surf := newStubSurface(100, 100)
	s, _ := testScheduler(nil, surf)

	s.Mutate(func(layers []*field.Layer) {
		layers[0].Config.Parallax = 0.85
	})

	// Restart regenerates the field from the live configs
	s.Start()
	s.Stop()

	if s.layers[0].Config.Parallax != 0.85 {
		t.Errorf("Expected tuned parallax to survive restart, got %v", s.layers[0].Config.Parallax)
	}
}

func TestSchedulerStopWaitsForInFlightFrame(t *testing.T) {
	surf := newStubSurface(100, 100)
	surf.beginEntered = make(chan struct{}, 1)
	surf.beginGate = make(chan struct{})
	s, pacer := testScheduler(nil, surf)

	s.Start()
	go pacer.Step(1)
	<-surf.beginEntered

	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()
	// Let Stop reach its wait on the loop goroutine
	time.Sleep(20 * time.Millisecond)

	// A mutation landing mid-teardown must not run against the layer
	// model while the in-flight frame still owns it
	applied := make(chan int, 1)
	go s.Mutate(func(layers []*field.Layer) {
		layers[0].Stars[0].Alpha = 0.5
		surf.mu.Lock()
		applied <- surf.flushes
		surf.mu.Unlock()
	})

	select {
	case <-stopDone:
		t.Fatal("Expected Stop to wait for the in-flight frame")
	case <-applied:
		t.Fatal("Expected Mutate to wait for the in-flight frame")
	case <-time.After(50 * time.Millisecond):
	}

	close(surf.beginGate)
	<-stopDone

	select {
	case flushes := <-applied:
		if flushes != 1 {
			t.Errorf("Expected mutation after the frame flushed, got %d flushes", flushes)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected mutation to apply once Stop completed")
	}
	if s.Running() {
		t.Error("Expected stopped state")
	}
}

func TestSchedulerFramePanicRecovered(t *testing.T) {
	surf := newStubSurface(100, 100)
	var mu sync.Mutex
	var logged []string
	pacer := NewManualPacer(16 * time.Millisecond)
	s := New(Config{
		Pacer: pacer,
		Time:  pacer,
		Rand:  rand.New(rand.NewSource(7)),
		Log: func(format string, args ...any) {
			mu.Lock()
			logged = append(logged, fmt.Sprintf(format, args...))
			mu.Unlock()
		},
	})
	s.Attach(surf)
	s.Start()

	surf.mu.Lock()
	surf.panicOnBegin = true
	surf.mu.Unlock()
	pacer.Step(2)

	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(logged) == 0 {
		t.Fatal("Expected recovered panic to be logged")
	}
	if !strings.Contains(logged[0], "frame recovered") {
		t.Errorf("Expected frame recovery log, got %q", logged[0])
	}
}
