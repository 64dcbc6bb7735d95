package render

// Default palette for the night-sky background and star tint
var (
	RgbSkyTop    = RGB{R: 5, G: 8, B: 22}
	RgbSkyBottom = RGB{R: 18, G: 22, B: 48}
	RgbStar      = RGB{R: 226, G: 232, B: 255}
)

// DefaultSky returns the standard deep-blue vertical gradient
func DefaultSky() Gradient {
	return Gradient{Top: RgbSkyTop, Bottom: RgbSkyBottom}
}
