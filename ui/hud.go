package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Generation  int
	Tick        int
	Score       int
	Alive       int
	Population  int
	BestFitness float64
	FPS         int32
}

// HUD renders the score and generation panel.
type HUD struct {
	theme *Theme
	x, y  int32
	width int32
}

// NewHUD creates a HUD at the given screen position.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{theme: &DefaultTheme, x: x, y: y, width: width}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	p := beginPanel(h.theme, h.x, h.y, h.width, 6)
	p.row("Gen", fmt.Sprintf("%d", data.Generation))
	p.row("Score", fmt.Sprintf("%d", data.Score))
	p.meter("Alive", data.Alive, data.Population)
	p.row("Tick", fmt.Sprintf("%d", data.Tick))
	p.row("Best", fmt.Sprintf("%.1f", data.BestFitness))
	p.row("FPS", fmt.Sprintf("%d", data.FPS))
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-20, 12, rl.Gray)
}

// SpeciesInfo holds info about a single species.
type SpeciesInfo struct {
	ID      int
	Size    int
	Age     int
	BestFit float64
	Color   rl.Color
}

// SpeciesPanel lists the largest species with their colors.
type SpeciesPanel struct {
	theme *Theme
	x, y  int32
	width int32
}

// NewSpeciesPanel creates a species panel at the given screen position.
func NewSpeciesPanel(x, y, width int32) *SpeciesPanel {
	return &SpeciesPanel{theme: &DefaultTheme, x: x, y: y, width: width}
}

// Draw renders up to five species.
func (p *SpeciesPanel) Draw(species []SpeciesInfo) {
	if len(species) == 0 {
		return
	}
	n := min(len(species), 5)

	pn := beginPanel(p.theme, p.x, p.y, p.width, n+1)
	pn.title("Species")
	for _, sp := range species[:n] {
		pn.swatch(sp.Color, fmt.Sprintf("#%d: %d (age %d, best %.0f)", sp.ID, sp.Size, sp.Age, sp.BestFit))
	}
}
