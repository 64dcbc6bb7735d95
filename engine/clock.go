package engine

import "time"

// MaxFrameDelta caps the per-frame time step. A suspended or throttled host
// (background tab, laptop sleep) otherwise produces one giant step that
// teleports every particle off screen
const MaxFrameDelta = 100 * time.Millisecond

// Clock accumulates elapsed animation time from an injected provider.
// Elapsed time drives the camera drift, so it must be smooth and monotonic
// regardless of frame-to-frame jitter; the per-frame delta drives motion
// integration and is clamped by MaxFrameDelta.
type Clock struct {
	provider TimeProvider
	start    time.Time
	last     time.Time
	elapsed  time.Duration
}

// NewClock creates a clock reading from the given provider
func NewClock(provider TimeProvider) *Clock {
	if provider == nil {
		provider = NewMonotonicTimeProvider()
	}
	c := &Clock{provider: provider}
	c.Reset()
	return c
}

// Reset restarts elapsed time at zero
func (c *Clock) Reset() {
	now := c.provider.Now()
	c.start = now
	c.last = now
	c.elapsed = 0
}

// Tick advances the clock and returns total elapsed time and the clamped
// delta since the previous tick
func (c *Clock) Tick() (elapsed, delta time.Duration) {
	now := c.provider.Now()
	delta = now.Sub(c.last)
	c.last = now

	if delta < 0 {
		delta = 0
	}
	if delta > MaxFrameDelta {
		delta = MaxFrameDelta
	}

	c.elapsed += delta
	return c.elapsed, delta
}

// Elapsed returns accumulated animation time without advancing the clock
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}
