package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// lowFraction is the alive share below which the meter switches to Theme.Low.
const lowFraction = 0.25

// panel lays rows out top to bottom inside a framed box.
type panel struct {
	theme *Theme
	x     int32
	width int32
	y     int32 // next row
}

// beginPanel draws a box tall enough for rows rows and returns a layout
// positioned at its first row.
func beginPanel(t *Theme, x, y, width int32, rows int) *panel {
	height := t.Row*int32(rows) + t.Pad*2
	rl.DrawRectangle(x, y, width, height, t.Panel)
	rl.DrawRectangleLines(x, y, width, height, t.Border)
	return &panel{theme: t, x: x + t.Pad, width: width - t.Pad*2, y: y + t.Pad}
}

func (p *panel) title(text string) {
	rl.DrawText(text, p.x, p.y, p.theme.TitleFont, p.theme.Title)
	p.y += p.theme.Row
}

func (p *panel) row(label, value string) {
	rl.DrawText(label, p.x, p.y, p.theme.Font, p.theme.Label)
	rl.DrawText(value, p.x+p.theme.LabelWidth, p.y, p.theme.Font, p.theme.Value)
	p.y += p.theme.Row
}

// meter draws current/total as a bar followed by the counts.
func (p *panel) meter(label string, current, total int) {
	t := p.theme
	frac := float32(0)
	if total > 0 {
		frac = float32(current) / float32(total)
	}

	barX := p.x + t.LabelWidth
	barW := p.width - t.LabelWidth - 52
	fill := t.Fill
	if frac < lowFraction {
		fill = t.Low
	}

	rl.DrawText(label, p.x, p.y, t.Font, t.Label)
	rl.DrawRectangle(barX, p.y+2, barW, t.Font-2, t.Track)
	rl.DrawRectangle(barX, p.y+2, int32(float32(barW)*frac), t.Font-2, fill)
	rl.DrawText(fmt.Sprintf("%d/%d", current, total), barX+barW+4, p.y, t.Font, t.Value)
	p.y += t.Row
}

// swatch draws a color square followed by text.
func (p *panel) swatch(color rl.Color, text string) {
	size := p.theme.Font - 2
	rl.DrawRectangle(p.x, p.y+2, size, size, color)
	rl.DrawText(text, p.x+size+6, p.y, p.theme.Font, p.theme.Label)
	p.y += p.theme.Row
}
