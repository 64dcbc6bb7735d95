package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"
)

// ImageSurface renders into an in-memory RGB backing store whose resolution
// is the logical size multiplied by the device pixel ratio. Draw calls take
// logical coordinates; the surface scales them, so callers never see the
// ratio. Useful for headless rendering, snapshots, and tests.
type ImageSurface struct {
	logicalW int
	logicalH int
	ratio    float64

	physW int
	physH int
	pix   []RGB

	glow    float64
	inFrame bool

	mu       sync.Mutex // guards resize posting vs Close
	resizeCh chan ResizeEvent
	closed   bool
}

// NewImageSurface creates a surface with the given logical size and pixel ratio
func NewImageSurface(width, height int, pixelRatio float64) *ImageSurface {
	s := &ImageSurface{
		resizeCh: make(chan ResizeEvent, 1),
	}
	s.Configure(width, height, pixelRatio)
	return s
}

// Configure implements Surface. Degenerate dimensions clamp to 1x1 and
// non-positive ratios to 1.0; the backing store is reallocated only when the
// physical resolution actually changed.
func (s *ImageSurface) Configure(width, height int, pixelRatio float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if pixelRatio <= 0 {
		pixelRatio = 1.0
	}

	physW := int(float64(width) * pixelRatio)
	physH := int(float64(height) * pixelRatio)
	if physW < 1 {
		physW = 1
	}
	if physH < 1 {
		physH = 1
	}

	s.logicalW = width
	s.logicalH = height
	s.ratio = pixelRatio

	if physW == s.physW && physH == s.physH && s.pix != nil {
		return
	}

	s.physW = physW
	s.physH = physH
	s.pix = make([]RGB, physW*physH)
}

// Size returns the logical dimensions
func (s *ImageSurface) Size() (int, int) {
	return s.logicalW, s.logicalH
}

// BackingSize returns the physical backing store resolution
func (s *ImageSurface) BackingSize() (int, int) {
	return s.physW, s.physH
}

// PixelRatio returns the current device pixel ratio
func (s *ImageSurface) PixelRatio() float64 {
	return s.ratio
}

// Resizes implements Surface
func (s *ImageSurface) Resizes() <-chan ResizeEvent {
	return s.resizeCh
}

// Resize posts a host resize notification. Latest event wins when the
// consumer lags
func (s *ImageSurface) Resize(width, height int, pixelRatio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.resizeCh:
	default:
	}
	s.resizeCh <- ResizeEvent{Width: width, Height: height, PixelRatio: pixelRatio}
}

// Begin implements Surface
func (s *ImageSurface) Begin(bg Gradient) {
	s.inFrame = true
	s.glow = 0
	for py := 0; py < s.physH; py++ {
		c := bg.At(py, s.physH)
		row := s.pix[py*s.physW : (py+1)*s.physW]
		for px := range row {
			row[px] = c
		}
	}
}

// SetGlow implements Surface
func (s *ImageSurface) SetGlow(radius float64) {
	if radius < 0 {
		radius = 0
	}
	s.glow = radius
}

// FillCircle implements Surface. The core is alpha-blended; the glow halo
// beyond the core radius falls off quadratically and is added so overlapping
// stars brighten instead of occluding
func (s *ImageSurface) FillCircle(x, y, r float64, c RGB, alpha float64) {
	if !s.inFrame || r <= 0 {
		return
	}
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}

	cx := x * s.ratio
	cy := y * s.ratio
	cr := r * s.ratio
	cg := s.glow * s.ratio
	reach := cr + cg

	minX := int(cx - reach - 1)
	maxX := int(cx + reach + 1)
	minY := int(cy - reach - 1)
	maxY := int(cy + reach + 1)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= s.physW {
		maxX = s.physW - 1
	}
	if maxY >= s.physH {
		maxY = s.physH - 1
	}

	for py := minY; py <= maxY; py++ {
		dy := float64(py) + 0.5 - cy
		rowOff := py * s.physW
		for px := minX; px <= maxX; px++ {
			dx := float64(px) + 0.5 - cx
			dist := dx*dx + dy*dy
			if dist > reach*reach {
				continue
			}
			idx := rowOff + px
			d := math.Sqrt(dist)

			if d <= cr {
				// Core with a half-pixel soft edge
				cov := cr + 0.5 - d
				if cov > 1 {
					cov = 1
				}
				s.pix[idx] = Blend(s.pix[idx], c, alpha*cov)
				continue
			}
			if cg > 0 {
				t := 1.0 - (d-cr)/cg
				s.pix[idx] = Add(s.pix[idx], Scale(c, alpha*t*t*0.5), 1.0)
			}
		}
	}
}

// Flush implements Surface
func (s *ImageSurface) Flush() {
	s.inFrame = false
}

// Close implements Surface
func (s *ImageSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Snapshot copies the backing store into a standard image
func (s *ImageSurface) Snapshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.physW, s.physH))
	for py := 0; py < s.physH; py++ {
		for px := 0; px < s.physW; px++ {
			p := s.pix[py*s.physW+px]
			img.SetRGBA(px, py, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return img
}

// WritePNG encodes the current backing store as PNG
func (s *ImageSurface) WritePNG(w io.Writer) error {
	return png.Encode(w, s.Snapshot())
}
