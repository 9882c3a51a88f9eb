package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/game"
)

var (
	skyTop      = rl.Color{R: 78, G: 192, B: 202, A: 255}
	skyBottom   = rl.Color{R: 222, G: 247, B: 235, A: 255}
	pipeFill    = rl.Color{R: 115, G: 191, B: 46, A: 255}
	pipeEdge    = rl.Color{R: 84, G: 56, B: 71, A: 255}
	groundFill  = rl.Color{R: 222, G: 216, B: 149, A: 255}
	groundTop   = rl.Color{R: 115, G: 191, B: 46, A: 255}
	groundDark  = rl.Color{R: 202, G: 196, B: 129, A: 255}
	defaultBird = rl.Color{R: 250, G: 200, B: 40, A: 255}
)

// drawScene renders the playfield: sky, pipes, ground, then birds.
func (w *Window) drawScene(s game.Snapshot) {
	worldW, worldH := w.cam.WorldW, w.cam.WorldH

	x, y, sw, sh := w.cam.Rect(0, 0, worldW, worldH)
	rl.DrawRectangleGradientV(int32(x), int32(y), int32(sw), int32(sh), skyTop, skyBottom)

	pipeW := float32(w.cfg.Pipe.Width)
	pipeH := float32(w.cfg.Pipe.Height)
	for _, p := range s.Pipes {
		w.fillRect(float32(p.X), float32(p.Top), pipeW, pipeH, pipeFill, pipeEdge)
		w.fillRect(float32(p.X), float32(p.Bottom), pipeW, pipeH, pipeFill, pipeEdge)
	}

	w.drawGround(s)

	bw, bh := float32(s.Body.W), float32(s.Body.H)
	for _, b := range s.Birds {
		color := defaultBird
		if w.source != nil {
			color = toColor(w.source.ColorOf(b.ID))
		}
		color.A = 200

		// Rotate around the body center; tilt is counter-clockwise
		cx, cy := w.cam.WorldToScreen(float32(b.X)+bw/2, float32(b.Y)+bh/2)
		rw, rh := bw*w.cam.ScaleX, bh*w.cam.ScaleY
		rl.DrawRectanglePro(
			rl.Rectangle{X: cx, Y: cy, Width: rw, Height: rh},
			rl.Vector2{X: rw / 2, Y: rh / 2},
			-float32(b.Angle),
			color,
		)
	}
}

// drawGround draws the ground strip with its two scrolling segments.
func (w *Window) drawGround(s game.Snapshot) {
	groundY := float32(s.Base.Y)
	height := w.cam.WorldH - groundY
	if height <= 0 {
		return
	}
	width := float32(w.cfg.Base.Width)

	w.fillRect(0, groundY, w.cam.WorldW, height, groundFill, groundFill)
	for _, x := range []float32{float32(s.Base.X1), float32(s.Base.X2)} {
		// Stripes mark the segment so scrolling is visible
		for sx := x; sx < x+width; sx += 48 {
			w.fillRect(sx, groundY+12, 24, height-12, groundDark, groundDark)
		}
	}
	w.fillRect(0, groundY, w.cam.WorldW, 12, groundTop, pipeEdge)
}

// fillRect draws a world rectangle clipped to the playfield.
func (w *Window) fillRect(wx, wy, ww, wh float32, fill, edge rl.Color) {
	cx, cy, cw, ch, ok := w.cam.Clip(wx, wy, ww, wh)
	if !ok {
		return
	}
	x, y, sw, sh := w.cam.Rect(cx, cy, cw, ch)
	rect := rl.Rectangle{X: x, Y: y, Width: sw, Height: sh}
	rl.DrawRectangleRec(rect, fill)
	if edge != fill {
		rl.DrawRectangleLinesEx(rect, 2, edge)
	}
}
