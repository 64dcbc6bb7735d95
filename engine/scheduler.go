package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/starfield/field"
	"github.com/lixenwraith/starfield/parameter"
	"github.com/lixenwraith/starfield/render"
)

// LogFunc receives engine diagnostics. Logging is the host's concern; the
// engine only reports lifecycle transitions and recovered frame panics
type LogFunc func(format string, args ...any)

// defaultLog writes to stderr
func defaultLog(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "starfield: "+format+"\n", args...)
}

// Config carries scheduler construction parameters. Zero values select
// defaults throughout
type Config struct {
	// Layers defines the parallax strata, painted in slice order
	// (index 0 farthest)
	Layers []field.LayerConfig

	// Background is the per-frame clear gradient; nil selects the default
	// sky. A pointer so an all-black gradient stays expressible
	Background *render.Gradient

	// Star is the particle tint before alpha is applied; nil selects the
	// default star color
	Star *render.RGB

	// Pacer supplies frame ticks; defaults to a TickPacer at
	// parameter.FrameInterval
	Pacer FramePacer

	// Time drives the animation clock; defaults to the monotonic provider
	Time TimeProvider

	// Rand seeds generation and respawn positions; defaults to a
	// time-seeded source
	Rand *rand.Rand

	// Log receives diagnostics; defaults to stderr
	Log LogFunc

	// PostPaint, when set, runs after the layers are painted and before
	// Flush. Hosts use it for overlays (HUD, status text)
	PostPaint func(render.Surface)

	// FrameDone, when set, receives a non-blocking signal after every
	// completed frame. Test hook
	FrameDone chan<- struct{}
}

// Scheduler drives the continuous update/render cycle over an attached
// surface. Lifecycle is stopped -> running -> stopped; a fresh Start resets
// the clock to zero and regenerates the field.
//
// Exactly one loop goroutine owns the layer model and the surface draw path
// while running. Resize notifications and Mutate closures are drained in
// the same select as frame ticks, so any single frame sees either the old
// field or the new field in full, never a partial replacement.
type Scheduler struct {
	layerCfgs  []field.LayerConfig
	background render.Gradient
	starColor  render.RGB
	postPaint  func(render.Surface)
	frameDone  chan<- struct{}

	gen   *field.Generator
	rng   *rand.Rand
	clock *Clock
	pacer FramePacer
	log   LogFunc

	mu      sync.Mutex
	surface render.Surface
	layers  []*field.Layer
	running bool
	stopCh  chan struct{}
	ctl     chan func(layers []*field.Layer)
	wg      sync.WaitGroup

	frames atomic.Uint64
}

// New creates a stopped scheduler from the configuration
func New(cfg Config) *Scheduler {
	if cfg.Layers == nil {
		cfg.Layers = field.DefaultConfigs()
	}
	background := render.DefaultSky()
	if cfg.Background != nil {
		background = *cfg.Background
	}
	starColor := render.RgbStar
	if cfg.Star != nil {
		starColor = *cfg.Star
	}
	if cfg.Pacer == nil {
		cfg.Pacer = NewTickPacer(parameter.FrameInterval)
	}
	if cfg.Time == nil {
		cfg.Time = NewMonotonicTimeProvider()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Log == nil {
		cfg.Log = defaultLog
	}

	return &Scheduler{
		layerCfgs:  cfg.Layers,
		background: background,
		starColor:  starColor,
		postPaint:  cfg.PostPaint,
		frameDone:  cfg.FrameDone,
		gen:        field.NewGenerator(cfg.Rand),
		rng:        cfg.Rand,
		clock:      NewClock(cfg.Time),
		pacer:      cfg.Pacer,
		log:        cfg.Log,
	}
}

// Attach binds the scheduler to a surface and generates the initial field.
// Attaching while running stops the loop first; re-attaching the same
// surface is a no-op
func (s *Scheduler) Attach(surf render.Surface) {
	s.mu.Lock()
	if s.surface == surf {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surf
	if surf != nil {
		w, h := surf.Size()
		s.layers = s.gen.Generate(s.layerCfgs, w, h)
	}
}

// Detach stops the loop and releases the surface. Idempotent; the surface
// itself is not closed, it belongs to the caller
func (s *Scheduler) Detach() {
	s.Stop()
	s.mu.Lock()
	s.surface = nil
	s.layers = nil
	s.mu.Unlock()
}

// Start transitions stopped -> running. A start without an attached surface
// is a logged no-op and may be retried after Attach
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	if s.surface == nil {
		s.log("start ignored: no surface attached")
		return
	}

	// The surface may have changed size while stopped
	w, h := s.surface.Size()
	s.layers = s.gen.Generate(s.currentConfigs(), w, h)
	s.clock.Reset()

	s.stopCh = make(chan struct{})
	s.ctl = make(chan func(layers []*field.Layer), 8)
	s.running = true
	s.pacer.Start()

	surf := s.surface
	stopCh := s.stopCh
	ctl := s.ctl

	s.wg.Add(1)
	go s.loop(surf, stopCh, ctl)
}

// Stop transitions running -> stopped, cancels frame production, and waits
// for the loop goroutine to exit. Safe to call repeatedly and before Start.
//
// The mutex is held across the wait: the loop goroutine never takes it, and
// holding it keeps Mutate's immediate path from touching the layer model
// while an in-flight frame still owns it
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	close(s.stopCh)
	s.pacer.Stop()
	s.wg.Wait()
	s.running = false
}

// Running reports whether the frame loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// FrameCount returns the number of completed frames since construction
func (s *Scheduler) FrameCount() uint64 {
	return s.frames.Load()
}

// Mutate runs fn against the layer model between frames. While stopped it
// applies immediately. Used for live tuning; fn must not retain the slice
func (s *Scheduler) Mutate(fn func(layers []*field.Layer)) {
	s.mu.Lock()
	if !s.running {
		fn(s.layers)
		s.mu.Unlock()
		return
	}
	ctl := s.ctl
	stopCh := s.stopCh
	s.mu.Unlock()

	select {
	case ctl <- fn:
	case <-stopCh:
	}
}

// loop is the frame loop. It owns the layer model until stopCh closes
func (s *Scheduler) loop(surf render.Surface, stopCh chan struct{}, ctl chan func(layers []*field.Layer)) {
	defer s.wg.Done()

	frames := s.pacer.Frames()
	resizes := surf.Resizes()

	for {
		select {
		case <-stopCh:
			return
		case ev := <-resizes:
			s.handleResize(surf, ev)
		case fn := <-ctl:
			s.safeRun(fn)
		case <-frames:
			s.safeFrame(surf)
		}
	}
}

// handleResize reconfigures the surface and regenerates the field without
// interrupting the loop. Star positions are relative to the old extents and
// meaningless after a resize, so the whole field is replaced
func (s *Scheduler) handleResize(surf render.Surface, ev render.ResizeEvent) {
	surf.Configure(ev.Width, ev.Height, ev.PixelRatio)
	w, h := surf.Size()
	s.layers = s.gen.Generate(s.currentConfigs(), w, h)
}

// currentConfigs returns the live layer configurations so tuning applied
// through Mutate survives regeneration
func (s *Scheduler) currentConfigs() []field.LayerConfig {
	if len(s.layers) == 0 {
		return s.layerCfgs
	}
	cfgs := make([]field.LayerConfig, len(s.layers))
	for i, layer := range s.layers {
		cfgs[i] = layer.Config
	}
	return cfgs
}

// safeRun executes a control closure with panic containment
func (s *Scheduler) safeRun(fn func(layers []*field.Layer)) {
	defer func() {
		if r := recover(); r != nil {
			s.log("mutate recovered: %v\n%s", r, debug.Stack())
		}
	}()
	fn(s.layers)
}

// safeFrame runs one frame with panic containment. A failed paint must not
// cancel the loop; worst case the background stops animating, never a crash
func (s *Scheduler) safeFrame(surf render.Surface) {
	defer func() {
		if r := recover(); r != nil {
			s.log("frame recovered: %v\n%s", r, debug.Stack())
		}
	}()
	s.frame(surf)
}

// frame advances the simulation one step and paints it back-to-front
func (s *Scheduler) frame(surf render.Surface) {
	elapsed, delta := s.clock.Tick()
	t := elapsed.Seconds()
	dt := delta.Seconds()

	// Shared camera drift, scaled per layer by its parallax coefficient.
	// Base positions never move; the offset alone sells the depth
	driftX := parameter.DriftAmplitude * math.Sin(t*parameter.DriftFreqX)
	driftY := parameter.DriftAmplitude * math.Cos(t*parameter.DriftFreqY)

	w, h := surf.Size()
	fw, fh := float64(w), float64(h)

	surf.Begin(s.background)
	for _, layer := range s.layers {
		cfg := layer.Config
		surf.SetGlow(cfg.Glow)
		for i := range layer.Stars {
			star := &layer.Stars[i]
			s.advance(star, cfg, fw, fh, dt)
			surf.FillCircle(
				star.X+driftX*cfg.Parallax,
				star.Y+driftY*cfg.Parallax,
				star.R,
				s.starColor,
				star.Alpha,
			)
		}
	}
	if s.postPaint != nil {
		s.postPaint(surf)
	}
	surf.Flush()

	s.frames.Add(1)
	if s.frameDone != nil {
		select {
		case s.frameDone <- struct{}{}:
		default:
		}
	}
}

// advance mutates one star by one time step
func (s *Scheduler) advance(star *field.Star, cfg field.LayerConfig, w, h, dt float64) {
	// Forward motion through the field; respawn above the top at a fresh
	// column so the field never empties
	star.Y += cfg.SpeedY * dt
	if star.Y > h+parameter.WrapMargin {
		star.Y = -parameter.WrapMargin
		star.X = s.rng.Float64() * w
	}

	// Twinkle with sign bounce at the band edges
	star.Alpha += star.Twinkle * dt
	if star.Alpha > parameter.StarAlphaMax {
		star.Alpha = parameter.StarAlphaMax
		star.Twinkle = -star.Twinkle
	} else if star.Alpha < parameter.StarAlphaMin {
		star.Alpha = parameter.StarAlphaMin
		star.Twinkle = -star.Twinkle
	}

	// Ambient wander, toroidal on all four edges
	if cfg.Drift > 0 {
		star.X += star.VX * dt
		star.Y += star.VY * dt
		span := w + 2*parameter.WrapMargin
		if star.X < -parameter.WrapMargin {
			star.X += span
		} else if star.X > w+parameter.WrapMargin {
			star.X -= span
		}
		vspan := h + 2*parameter.WrapMargin
		if star.Y < -parameter.WrapMargin {
			star.Y += vspan
		} else if star.Y > h+parameter.WrapMargin {
			star.Y -= vspan
		}
	}
}
