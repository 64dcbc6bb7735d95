package render

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// glyph is a star drawn on top of the background buffer
type glyph struct {
	r  rune
	fg RGB
}

// TerminalSurface renders the particle field into a tcell screen. One cell
// is one logical pixel; the pixel ratio is always 1. Star cores pick a rune
// by radius while the cell background is brightened additively, so dense
// fields read as a glow rather than a wall of characters.
type TerminalSurface struct {
	screen tcell.Screen

	width  int
	height int
	bg     []RGB
	marks  []glyph

	glow    float64
	inFrame bool

	resizeCh chan ResizeEvent
	keyCh    chan *tcell.EventKey
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewTerminalSurface initializes the terminal and starts the event pump
func NewTerminalSurface() (*TerminalSurface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal screen: %w", err)
	}
	return NewTerminalSurfaceScreen(screen)
}

// NewTerminalSurfaceScreen wraps an existing screen. Tests feed it a tcell
// simulation screen
func NewTerminalSurfaceScreen(screen tcell.Screen) (*TerminalSurface, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	screen.HideCursor()

	s := &TerminalSurface{
		screen:   screen,
		resizeCh: make(chan ResizeEvent, 1),
		keyCh:    make(chan *tcell.EventKey, 64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	w, h := screen.Size()
	s.Configure(w, h, 1.0)

	go s.pump()
	return s, nil
}

// pump forwards terminal events until Close
func (s *TerminalSurface) pump() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			w, h := ev.Size()
			// Latest resize wins when the consumer lags
			select {
			case <-s.resizeCh:
			default:
			}
			s.resizeCh <- ResizeEvent{Width: w, Height: h, PixelRatio: 1.0}
		case *tcell.EventKey:
			select {
			case s.keyCh <- ev:
			default:
			}
		}
	}
}

// Configure implements Surface. The ratio argument is ignored; terminals
// have no device pixel density
func (s *TerminalSurface) Configure(width, height int, _ float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == s.width && height == s.height && s.bg != nil {
		return
	}
	s.width = width
	s.height = height
	s.bg = make([]RGB, width*height)
	s.marks = make([]glyph, width*height)
	s.screen.Sync()
}

// Size implements Surface
func (s *TerminalSurface) Size() (int, int) {
	return s.width, s.height
}

// Resizes implements Surface
func (s *TerminalSurface) Resizes() <-chan ResizeEvent {
	return s.resizeCh
}

// Keys returns terminal key events for the hosting program
func (s *TerminalSurface) Keys() <-chan *tcell.EventKey {
	return s.keyCh
}

// Begin implements Surface
func (s *TerminalSurface) Begin(bg Gradient) {
	s.inFrame = true
	s.glow = 0
	for y := 0; y < s.height; y++ {
		c := bg.At(y, s.height)
		row := s.bg[y*s.width : (y+1)*s.width]
		for x := range row {
			row[x] = c
		}
	}
	for i := range s.marks {
		s.marks[i] = glyph{}
	}
}

// SetGlow implements Surface
func (s *TerminalSurface) SetGlow(radius float64) {
	if radius < 0 {
		radius = 0
	}
	s.glow = radius
}

// starRune maps particle radius to a glyph
func starRune(r float64) rune {
	switch {
	case r < 0.7:
		return '·'
	case r < 1.2:
		return '•'
	default:
		return '✦'
	}
}

// FillCircle implements Surface
func (s *TerminalSurface) FillCircle(x, y, r float64, c RGB, alpha float64) {
	if !s.inFrame || r <= 0 || alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	cx, cy := int(x), int(y)
	if cx < 0 || cx >= s.width || cy < 0 || cy >= s.height {
		return
	}

	idx := cy*s.width + cx
	s.bg[idx] = Add(s.bg[idx], Scale(c, alpha*0.35), 1.0)
	s.marks[idx] = glyph{r: starRune(r), fg: Scale(c, 0.35+0.65*alpha)}

	if s.glow <= 0 {
		return
	}
	// One-cell halo; intensity scales with the layer glow radius
	halo := alpha * 0.12 * s.glow
	if halo > 0.5 {
		halo = 0.5
	}
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := cx+d[0], cy+d[1]
		if nx < 0 || nx >= s.width || ny < 0 || ny >= s.height {
			continue
		}
		nidx := ny*s.width + nx
		s.bg[nidx] = Add(s.bg[nidx], Scale(c, halo), 1.0)
	}
}

// WriteText draws HUD text on top of the frame. Intended for hosting
// programs between the engine's paint pass and Flush
func (s *TerminalSurface) WriteText(x, y int, text string, fg RGB) {
	if y < 0 || y >= s.height {
		return
	}
	for _, r := range text {
		if x < 0 {
			x++
			continue
		}
		if x >= s.width {
			break
		}
		s.marks[y*s.width+x] = glyph{r: r, fg: fg}
		x++
	}
}

// Flush implements Surface
func (s *TerminalSurface) Flush() {
	if !s.inFrame {
		return
	}
	s.inFrame = false

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			idx := y*s.width + x
			bg := s.bg[idx]
			m := s.marks[idx]

			style := tcell.StyleDefault.
				Background(tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B)))

			r := ' '
			if m.r != 0 {
				r = m.r
				style = style.Foreground(tcell.NewRGBColor(int32(m.fg.R), int32(m.fg.G), int32(m.fg.B)))
			}
			s.screen.SetContent(x, y, r, nil, style)
		}
	}
	s.screen.Show()
}

// Close implements Surface. Stops the event pump and restores the terminal
func (s *TerminalSurface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	<-s.doneCh
	s.screen.Fini()
}
