package parameter

import "time"

// Star field generation
const (
	// StarRadiusMin/Max bound the base particle radius before the layer
	// depth factor is applied (logical pixels)
	StarRadiusMin = 0.3
	StarRadiusMax = 1.5

	// StarAlphaMin/Max is the twinkle band; brightness bounces between
	// these, never escaping
	StarAlphaMin = 0.2
	StarAlphaMax = 1.0

	// TwinkleRateMin/Max bound the base brightness change rate (alpha per
	// second) before the depth factor is applied
	TwinkleRateMin = 0.25
	TwinkleRateMax = 1.3
)

// Motion
const (
	// WrapMargin is how far past an edge a star travels before wrapping
	// (logical pixels)
	WrapMargin = 2.0

	// DriftAmplitude is the camera drift radius shared by all layers,
	// scaled per layer by its parallax coefficient (logical pixels)
	DriftAmplitude = 14.0

	// DriftFreqX/Y are the camera drift angular frequencies (rad/sec).
	// Deliberately incommensurate so the path never visibly repeats
	DriftFreqX = 0.11
	DriftFreqY = 0.073
)

// Scheduling
const (
	// FrameInterval is the default frame pacing target (~60 fps)
	FrameInterval = 16 * time.Millisecond

	// LayerCountMax caps stars per layer against runaway configuration
	LayerCountMax = 10000
)
