// Package termview draws generations in a terminal with tcell.
package termview

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flappy/camera"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
)

// ColorSource gives the species color of a bird by original index.
type ColorSource interface {
	ColorOf(i int) neural.SpeciesColor
}

var (
	styleSky    = tcell.StyleDefault.Background(tcell.ColorBlack)
	stylePipe   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack)
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorOlive).Background(tcell.ColorBlack)
	styleBird   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

// View is a game.Presenter that renders to a tcell screen. Esc, Ctrl-C and q
// close the view; n skips to the next generation.
type View struct {
	screen tcell.Screen
	cfg    *config.Config
	cam    *camera.Camera
	source ColorSource

	frame     time.Duration
	lastFrame time.Time

	skip   bool
	closed bool
}

// Open initialises the terminal and returns a view paced at the configured
// frame rate.
func Open(cfg *config.Config, source ColorSource) (*View, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising terminal screen: %w", err)
	}

	var frame time.Duration
	if cfg.Screen.TargetFPS > 0 {
		frame = time.Second / time.Duration(cfg.Screen.TargetFPS)
	}
	return New(screen, cfg, source, frame), nil
}

// New wraps an initialised screen. A zero frame duration disables pacing.
func New(screen tcell.Screen, cfg *config.Config, source ColorSource, frame time.Duration) *View {
	v := &View{
		screen: screen,
		cfg:    cfg,
		source: source,
		frame:  frame,
	}
	v.resize()
	return v
}

// Present draws one frame and reports whether the generation should stop.
func (v *View) Present(s game.Snapshot) bool {
	for v.screen.HasPendingEvent() {
		v.handleEvent(v.screen.PollEvent())
	}
	if v.closed {
		return true
	}

	v.draw(s)
	v.screen.Show()
	v.pace()

	skip := v.skip
	v.skip = false
	return skip
}

// Closed reports whether the user closed the view.
func (v *View) Closed() bool {
	return v.closed
}

// Close restores the terminal.
func (v *View) Close() {
	v.screen.Fini()
}

func (v *View) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			v.closed = true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			v.closed = true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'n':
			v.skip = true
		}
	case *tcell.EventResize:
		v.resize()
		v.screen.Sync()
	}
}

// resize maps the playfield onto every row but the status line.
func (v *View) resize() {
	w, h := v.screen.Size()
	v.cam = camera.Stretch(float32(w), float32(max(h-1, 1)),
		float32(v.cfg.Screen.Width), float32(v.cfg.Screen.Height))
	v.cam.OffsetY = 1
}

func (v *View) pace() {
	if v.frame <= 0 {
		return
	}
	if !v.lastFrame.IsZero() {
		if wait := v.frame - time.Since(v.lastFrame); wait > 0 {
			time.Sleep(wait)
		}
	}
	v.lastFrame = time.Now()
}

func (v *View) draw(s game.Snapshot) {
	v.screen.Fill(' ', styleSky)

	pipeW, pipeH := float32(v.cfg.Pipe.Width), float32(v.cfg.Pipe.Height)
	for _, p := range s.Pipes {
		v.fill(float32(p.X), float32(p.Top), pipeW, pipeH, '█', stylePipe)
		v.fill(float32(p.X), float32(p.Bottom), pipeW, pipeH, '█', stylePipe)
	}

	groundY := float32(s.Base.Y)
	v.fill(0, groundY, v.cam.WorldW, v.cam.WorldH-groundY, '▒', styleGround)

	for _, b := range s.Birds {
		style := styleBird
		if v.source != nil {
			c := v.source.ColorOf(b.ID)
			style = style.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		}
		x, y := v.cam.WorldToScreen(float32(b.X+s.Body.W/2), float32(b.Y+s.Body.H/2))
		v.screen.SetContent(int(x), int(y), '@', nil, style)
	}

	status := fmt.Sprintf(" gen %d  score %d  alive %d/%d  tick %d  [n] next [q] quit ",
		s.Generation, s.Score, s.Alive, s.Population, s.Tick)
	w, _ := v.screen.Size()
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(status) {
			r = rune(status[x])
		}
		v.screen.SetContent(x, 0, r, nil, styleStatus)
	}
}

// fill paints the cells covered by a world rectangle, clipped to the playfield.
func (v *View) fill(wx, wy, ww, wh float32, r rune, style tcell.Style) {
	cx, cy, cw, ch, ok := v.cam.Clip(wx, wy, ww, wh)
	if !ok {
		return
	}
	sx, sy, sw, sh := v.cam.Rect(cx, cy, cw, ch)
	x0, y0 := int(math.Floor(float64(sx))), int(math.Floor(float64(sy)))
	x1, y1 := int(math.Ceil(float64(sx+sw))), int(math.Ceil(float64(sy+sh)))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v.screen.SetContent(x, y, r, nil, style)
		}
	}
}
