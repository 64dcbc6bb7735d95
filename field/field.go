// Package field holds the particle data model: stars, depth layers, and the
// generator that populates layers for a given surface size.
package field

// Star is a single animated particle. Position is in surface-local logical
// coordinates and may be fractional. R is fixed for the star's lifetime;
// Alpha oscillates inside the configured twinkle band by flipping the sign
// of Twinkle at the band edges.
type Star struct {
	X, Y    float64
	R       float64
	Alpha   float64
	Twinkle float64
	VX, VY  float64
}

// LayerConfig describes one depth stratum of the field
type LayerConfig struct {
	// Count is the number of stars in the layer
	Count int `yaml:"count"`

	// DepthFactor scales star size and twinkle rate; larger reads nearer
	DepthFactor float64 `yaml:"depth"`

	// SpeedY is the vertical fall speed in logical pixels per second
	SpeedY float64 `yaml:"speed"`

	// Parallax scales the shared camera drift offset for this layer
	Parallax float64 `yaml:"parallax"`

	// Glow is the halo radius in logical pixels, applied per layer
	Glow float64 `yaml:"glow"`

	// Drift is the maximum lateral wander speed in logical pixels per
	// second; zero disables wander for the layer
	Drift float64 `yaml:"drift"`
}

// Layer is an ordered collection of stars sharing motion parameters.
// Slice order across layers is paint order: index 0 is farthest and is
// painted first.
type Layer struct {
	Config LayerConfig
	Stars  []Star
}
