package engine

import (
	"sync"
	"time"
)

// FramePacer supplies frame ticks to the scheduler. Production uses
// TickPacer at display rate; tests use ManualPacer to step frames by hand.
// The same update/paint logic runs unchanged against either.
type FramePacer interface {
	// Start begins producing ticks. Restartable after Stop
	Start()

	// Frames returns the tick channel. A nil channel (pacer not started)
	// simply never fires
	Frames() <-chan time.Time

	// Stop ceases tick production. Safe to call multiple times
	Stop()
}

// TickPacer paces frames with a fixed-interval ticker
type TickPacer struct {
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
}

// NewTickPacer creates a pacer with the given frame interval
func NewTickPacer(interval time.Duration) *TickPacer {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickPacer{interval: interval}
}

// Start implements FramePacer
func (p *TickPacer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker == nil {
		p.ticker = time.NewTicker(p.interval)
	}
}

// Frames implements FramePacer
func (p *TickPacer) Frames() <-chan time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker == nil {
		return nil
	}
	return p.ticker.C
}

// Stop implements FramePacer
func (p *TickPacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

// ManualPacer drives frames from test code. It also implements TimeProvider:
// each Step advances the reported time by the step interval, so a scheduler
// wired to the same ManualPacer sees a deterministic delta per frame.
type ManualPacer struct {
	ch   chan time.Time
	step time.Duration

	mu  sync.RWMutex
	now time.Time
}

// NewManualPacer creates a manual pacer advancing time by step per frame
func NewManualPacer(step time.Duration) *ManualPacer {
	return &ManualPacer{
		ch:   make(chan time.Time),
		step: step,
		now:  time.Unix(0, 0),
	}
}

// Start implements FramePacer
func (p *ManualPacer) Start() {}

// Frames implements FramePacer
func (p *ManualPacer) Frames() <-chan time.Time {
	return p.ch
}

// Stop implements FramePacer
func (p *ManualPacer) Stop() {}

// Now implements TimeProvider
func (p *ManualPacer) Now() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now
}

// Step emits n frame ticks, advancing time by the step interval before each.
// Blocks until the consumer accepts every tick
func (p *ManualPacer) Step(n int) {
	for i := 0; i < n; i++ {
		p.mu.Lock()
		p.now = p.now.Add(p.step)
		now := p.now
		p.mu.Unlock()
		p.ch <- now
	}
}
