// Package audio provides the optional ambient drone for the starfield demo.
// Everything is synthesized; no sample assets.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/starfield/parameter"
)

const sampleRate = beep.SampleRate(parameter.AudioSampleRate)

// drone is an endless two-oscillator pad with a slow amplitude shimmer.
// Two slightly detuned sines beat against each other; the LFO breathes the
// whole thing so it never reads as a test tone
type drone struct {
	phaseA   float64
	phaseB   float64
	lfoPhase float64
}

// Stream implements beep.Streamer; the drone never ends
func (d *drone) Stream(samples [][2]float64) (n int, ok bool) {
	stepA := parameter.DroneFreq / float64(sampleRate)
	stepB := parameter.DroneFreq * parameter.DroneDetune / float64(sampleRate)
	stepL := parameter.DroneShimmerFreq / float64(sampleRate)

	for i := range samples {
		shimmer := 0.75 + 0.25*math.Sin(2*math.Pi*d.lfoPhase)
		val := shimmer * 0.5 * (math.Sin(2*math.Pi*d.phaseA) + math.Sin(2*math.Pi*d.phaseB))

		samples[i][0] = val
		samples[i][1] = val

		d.phaseA += stepA
		d.phaseA -= math.Floor(d.phaseA)
		d.phaseB += stepB
		d.phaseB -= math.Floor(d.phaseB)
		d.lfoPhase += stepL
		d.lfoPhase -= math.Floor(d.lfoPhase)
	}
	return len(samples), true
}

func (d *drone) Err() error { return nil }

// newVolume wraps a streamer with a volume control
// math.Log2(0) is -Inf, so zero volume switches to silent instead
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Ambient manages the background drone lifecycle
type Ambient struct {
	mu          sync.Mutex
	ctrl        *beep.Ctrl
	vol         *effects.Volume
	initialized bool
}

// NewAmbient creates a stopped ambient player
func NewAmbient() *Ambient {
	return &Ambient{}
}

// Initialize opens the speaker and starts the drone paused
func (a *Ambient) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	a.vol = newVolume(&drone{}, parameter.DroneVolume)
	a.ctrl = &beep.Ctrl{Streamer: a.vol, Paused: true}
	speaker.Play(a.ctrl)
	a.initialized = true
	return nil
}

// Toggle flips playback and reports the new playing state
func (a *Ambient) Toggle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return false
	}
	speaker.Lock()
	a.ctrl.Paused = !a.ctrl.Paused
	playing := !a.ctrl.Paused
	speaker.Unlock()
	return playing
}

// Playing reports whether the drone is audible
func (a *Ambient) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !a.ctrl.Paused
}

// Cleanup silences the drone. beep has no speaker close; pausing the control
// is the teardown it supports
func (a *Ambient) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return
	}
	speaker.Lock()
	a.ctrl.Paused = true
	speaker.Unlock()
	a.initialized = false
}
