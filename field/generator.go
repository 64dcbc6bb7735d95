package field

import (
	"math/rand"
	"time"

	"github.com/lixenwraith/starfield/parameter"
)

// Generator builds layer contents from layer configurations. The random
// source is injectable so tests can seed it; production callers pass nil
// for a time-seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given random source
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// ClampConfig normalizes a layer configuration to something viable.
// Generation must never fail; the field is decorative
func ClampConfig(cfg LayerConfig) LayerConfig {
	if cfg.Count < 1 {
		cfg.Count = 1
	}
	if cfg.Count > parameter.LayerCountMax {
		cfg.Count = parameter.LayerCountMax
	}
	if cfg.DepthFactor <= 0 {
		cfg.DepthFactor = 1.0
	}
	if cfg.SpeedY < 0 {
		cfg.SpeedY = 0
	}
	if cfg.Parallax < 0 {
		cfg.Parallax = 0
	}
	if cfg.Glow < 0 {
		cfg.Glow = 0
	}
	if cfg.Drift < 0 {
		cfg.Drift = 0
	}
	return cfg
}

// Generate produces one populated layer per configuration for the given
// logical dimensions. Layer order in the result is the paint order, index 0
// farthest. Positions are uniform over the surface; sizes and twinkle rates
// scale with the layer depth factor so near layers read larger and livelier.
func (g *Generator) Generate(configs []LayerConfig, width, height int) []*Layer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	layers := make([]*Layer, 0, len(configs))
	for _, cfg := range configs {
		cfg = ClampConfig(cfg)

		stars := make([]Star, cfg.Count)
		for i := range stars {
			stars[i] = g.newStar(cfg, width, height)
		}
		layers = append(layers, &Layer{Config: cfg, Stars: stars})
	}
	return layers
}

// newStar creates one star per the layer configuration
func (g *Generator) newStar(cfg LayerConfig, width, height int) Star {
	r := g.uniform(parameter.StarRadiusMin, parameter.StarRadiusMax) * cfg.DepthFactor
	twinkle := g.uniform(parameter.TwinkleRateMin, parameter.TwinkleRateMax) * cfg.DepthFactor

	s := Star{
		X:       g.rng.Float64() * float64(width),
		Y:       g.rng.Float64() * float64(height),
		R:       r,
		Alpha:   g.uniform(parameter.StarAlphaMin, parameter.StarAlphaMax),
		Twinkle: twinkle * g.sign(),
	}
	if cfg.Drift > 0 {
		s.VX = g.rng.Float64() * cfg.Drift * g.sign()
		s.VY = g.rng.Float64() * cfg.Drift * g.sign()
	}
	return s
}

// uniform returns a random value in [lo, hi)
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// sign returns -1 or +1 with equal probability
func (g *Generator) sign() float64 {
	if g.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// DefaultConfigs returns the standard three-layer parallax field: a dense
// far layer, a mid layer, and a sparse bright near layer
func DefaultConfigs() []LayerConfig {
	return []LayerConfig{
		{Count: 220, DepthFactor: 0.5, SpeedY: 4, Parallax: 0.3, Glow: 0, Drift: 0},
		{Count: 140, DepthFactor: 1.0, SpeedY: 8, Parallax: 0.6, Glow: 2, Drift: 2},
		{Count: 70, DepthFactor: 1.6, SpeedY: 14, Parallax: 1.0, Glow: 4, Drift: 3},
	}
}
