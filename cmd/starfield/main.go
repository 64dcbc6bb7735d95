package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/starfield/audio"
	"github.com/lixenwraith/starfield/engine"
	"github.com/lixenwraith/starfield/field"
	"github.com/lixenwraith/starfield/render"
)

// presetFile is the YAML shape accepted by -config
type presetFile struct {
	Background struct {
		Top    [3]uint8 `yaml:"top"`
		Bottom [3]uint8 `yaml:"bottom"`
	} `yaml:"background"`
	Layers []field.LayerConfig `yaml:"layers"`
}

// presets are the built-in layer arrangements
var presets = map[string][]field.LayerConfig{
	"default": field.DefaultConfigs(),
	"calm": {
		{Count: 160, DepthFactor: 0.6, SpeedY: 2, Parallax: 0.3, Glow: 0, Drift: 0},
		{Count: 60, DepthFactor: 1.2, SpeedY: 4, Parallax: 0.8, Glow: 3, Drift: 1},
	},
	"storm": {
		{Count: 260, DepthFactor: 0.5, SpeedY: 14, Parallax: 0.3, Glow: 0, Drift: 2},
		{Count: 160, DepthFactor: 1.0, SpeedY: 24, Parallax: 0.6, Glow: 2, Drift: 4},
		{Count: 90, DepthFactor: 1.8, SpeedY: 40, Parallax: 1.0, Glow: 5, Drift: 6},
	},
}

// control is one tunable HUD parameter
type control struct {
	name string
	get  func(cfg *field.LayerConfig) *float64
	min  float64
	max  float64
	step float64
}

var controls = []control{
	{"Speed", func(c *field.LayerConfig) *float64 { return &c.SpeedY }, 0, 60, 1},
	{"Parallax", func(c *field.LayerConfig) *float64 { return &c.Parallax }, 0, 1.5, 0.05},
	{"Glow", func(c *field.LayerConfig) *float64 { return &c.Glow }, 0, 8, 0.5},
	{"Drift", func(c *field.LayerConfig) *float64 { return &c.Drift }, 0, 10, 0.5},
}

// hud holds the overlay state shared between the key handler and the
// engine's post-paint hook
type hud struct {
	mu       sync.Mutex
	visible  bool
	layer    int
	selected int
	playing  bool
	audioOn  bool

	// vals mirrors the tunable layer parameters; the engine owns the real
	// ones, so the HUD displays its own copy instead of reaching into the
	// frame loop
	vals [][]float64
}

// newHUD snapshots the initial parameter values
func newHUD(cfgs []field.LayerConfig) *hud {
	h := &hud{visible: true, playing: true}
	h.vals = make([][]float64, len(cfgs))
	for i := range cfgs {
		h.vals[i] = make([]float64, len(controls))
		for j, c := range controls {
			h.vals[i][j] = *c.get(&cfgs[i])
		}
	}
	return h
}

func (h *hud) paint(surf render.Surface, sched *engine.Scheduler) {
	ts, ok := surf.(*render.TerminalSurface)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.visible {
		return
	}

	_, height := ts.Size()
	fg := render.RGB{R: 150, G: 160, B: 190}
	fgSel := render.RGB{R: 255, G: 240, B: 140}

	lines := make([]string, 0, len(controls)+3)
	lines = append(lines, "=== STARFIELD ===")
	lines = append(lines, "[Tab] Layer  [W/S] Param  [A/D] Adjust  [Space] Pause  [M] Audio  [H] HUD  [Q] Quit")
	state := "running"
	if !h.playing {
		state = "stopped"
	}
	mute := "off"
	if h.audioOn {
		mute = "on"
	}
	lines = append(lines, fmt.Sprintf("layer %d/%d  %s  audio %s  frames %d",
		h.layer+1, len(h.vals), state, mute, sched.FrameCount()))

	for i, c := range controls {
		marker := "  "
		if i == h.selected {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%-9s %5.2f", marker, c.name, h.vals[h.layer][i]))
	}

	startY := height - len(lines) - 1
	for i, line := range lines {
		color := fg
		if i >= 3 && i-3 == h.selected {
			color = fgSel
		}
		ts.WriteText(2, startY+i, line, color)
	}
}

func main() {
	presetName := flag.String("preset", "default", "built-in layer preset (default, calm, storm)")
	configPath := flag.String("config", "", "YAML preset file overriding -preset")
	frameMs := flag.Int("frame", 16, "frame interval in milliseconds")
	mute := flag.Bool("mute", false, "skip audio initialization")
	flag.Parse()

	layers, bg, err := loadConfig(*presetName, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "starfield: %v\n", err)
		os.Exit(1)
	}

	surf, err := render.NewTerminalSurface()
	if err != nil {
		fmt.Fprintf(os.Stderr, "starfield: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		surf.Close()
		os.Exit(0)
	}()

	amb := audio.NewAmbient()
	if !*mute {
		if err := amb.Initialize(); err != nil {
			// No audio device is not a reason to skip the show
			fmt.Fprintf(os.Stderr, "starfield: audio unavailable: %v\n", err)
		}
	}

	h := newHUD(layers)

	var sched *engine.Scheduler
	sched = engine.New(engine.Config{
		Layers:     layers,
		Background: &bg,
		Pacer:      engine.NewTickPacer(time.Duration(*frameMs) * time.Millisecond),
		PostPaint: func(s render.Surface) {
			h.paint(s, sched)
		},
	})

	sched.Attach(surf)
	sched.Start()

	for ev := range surf.Keys() {
		if done := handleKey(ev, h, sched, amb); done {
			break
		}
	}

	sched.Detach()
	amb.Cleanup()
	surf.Close()
}

// handleKey dispatches one key event; returns true to quit
func handleKey(ev *tcell.EventKey, h *hud, sched *engine.Scheduler, amb *audio.Ambient) bool {
	key := ev.Key()
	r := ev.Rune()

	switch {
	case key == tcell.KeyEscape || key == tcell.KeyCtrlC || r == 'q' || r == 'Q':
		return true

	case key == tcell.KeyTab:
		h.mu.Lock()
		h.layer = (h.layer + 1) % len(h.vals)
		h.mu.Unlock()

	case r == ' ':
		h.mu.Lock()
		playing := h.playing
		h.playing = !playing
		h.mu.Unlock()
		if playing {
			sched.Stop()
		} else {
			sched.Start()
		}

	case r == 'm' || r == 'M':
		on := amb.Toggle()
		h.mu.Lock()
		h.audioOn = on
		h.mu.Unlock()

	case r == 'h' || r == 'H':
		h.mu.Lock()
		h.visible = !h.visible
		h.mu.Unlock()

	case r == 'w' || r == 'W' || key == tcell.KeyUp:
		h.mu.Lock()
		h.selected = (h.selected + len(controls) - 1) % len(controls)
		h.mu.Unlock()

	case r == 's' || r == 'S' || key == tcell.KeyDown:
		h.mu.Lock()
		h.selected = (h.selected + 1) % len(controls)
		h.mu.Unlock()

	case r == 'a' || r == 'A' || key == tcell.KeyLeft:
		adjust(h, sched, -1)

	case r == 'd' || r == 'D' || key == tcell.KeyRight:
		adjust(h, sched, +1)
	}
	return false
}

// adjust nudges the selected parameter on the selected layer
func adjust(h *hud, sched *engine.Scheduler, dir float64) {
	h.mu.Lock()
	layer := h.layer
	sel := h.selected
	ctl := controls[sel]

	v := h.vals[layer][sel] + dir*ctl.step
	if v < ctl.min {
		v = ctl.min
	}
	if v > ctl.max {
		v = ctl.max
	}
	h.vals[layer][sel] = v
	h.mu.Unlock()

	sched.Mutate(func(layers []*field.Layer) {
		if layer >= len(layers) {
			return
		}
		*ctl.get(&layers[layer].Config) = v
	})
}

// loadConfig resolves the layer set and background from flags
func loadConfig(preset, path string) ([]field.LayerConfig, render.Gradient, error) {
	bg := render.DefaultSky()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, bg, fmt.Errorf("read config: %w", err)
		}
		var pf presetFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, bg, fmt.Errorf("parse config: %w", err)
		}
		if len(pf.Layers) == 0 {
			return nil, bg, fmt.Errorf("config %s defines no layers", path)
		}
		// An omitted background block keeps the default sky
		if pf.Background.Top != [3]uint8{} || pf.Background.Bottom != [3]uint8{} {
			bg = render.Gradient{
				Top:    render.RGB{R: pf.Background.Top[0], G: pf.Background.Top[1], B: pf.Background.Top[2]},
				Bottom: render.RGB{R: pf.Background.Bottom[0], G: pf.Background.Bottom[1], B: pf.Background.Bottom[2]},
			}
		}
		return pf.Layers, bg, nil
	}

	layers, ok := presets[preset]
	if !ok {
		return nil, bg, fmt.Errorf("unknown preset %q", preset)
	}
	return layers, bg, nil
}
