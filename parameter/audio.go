package parameter

// Ambient drone synthesis
const (
	// AudioSampleRate in Hz
	AudioSampleRate = 48000

	// DroneFreq is the pad fundamental (A1)
	DroneFreq = 55.0

	// DroneDetune is the second oscillator's frequency ratio; the slight
	// offset produces a slow beat between the two sines
	DroneDetune = 1.006

	// DroneShimmerFreq is the amplitude LFO rate in Hz
	DroneShimmerFreq = 0.08

	// DroneVolume is the linear output level
	DroneVolume = 0.25
)
