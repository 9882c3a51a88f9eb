// Package renderer draws generations in a raylib window.
package renderer

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/camera"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/ui"
)

// SpeciesSource exposes the driver state shown next to the playfield.
// *neural.Population implements it.
type SpeciesSource interface {
	ColorOf(i int) neural.SpeciesColor
	TopSpecies(n int) []neural.SpeciesInfo
	Best() (*genetics.Genome, float64)
}

// Window is a game.Presenter backed by a raylib window.
type Window struct {
	cfg    *config.Config
	cam    *camera.Camera
	source SpeciesSource

	hud     *ui.HUD
	species *ui.SpeciesPanel

	showBrain bool
	closed    bool
}

// Open creates the window. source may be nil, in which case birds use a
// single color and no species panel is drawn.
func Open(cfg *config.Config, title string, source SpeciesSource) *Window {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	worldW, worldH := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	return &Window{
		cfg:     cfg,
		cam:     camera.New(worldW, worldH, worldW, worldH),
		source:  source,
		hud:     ui.NewHUD(10, 10, 190),
		species: ui.NewSpeciesPanel(10, 128, 240),
	}
}

// Present draws one frame. It asks the generation to stop when the window is
// closing or the user skips to the next generation.
func (w *Window) Present(s game.Snapshot) bool {
	if rl.WindowShouldClose() {
		w.closed = true
		return true
	}
	if rl.IsWindowResized() {
		w.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	}
	if rl.IsKeyPressed(rl.KeyB) {
		w.showBrain = !w.showBrain
	}
	skip := rl.IsKeyPressed(rl.KeyN)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	w.drawScene(s)
	w.drawOverlay(s)

	screenW := float32(rl.GetScreenWidth())
	if gui.Button(rl.Rectangle{X: screenW - 150, Y: 10, Width: 140, Height: 30}, "Next generation") {
		skip = true
	}

	rl.EndDrawing()
	return skip
}

// Closed reports whether the user closed the window.
func (w *Window) Closed() bool {
	return w.closed
}

// Close destroys the window.
func (w *Window) Close() {
	rl.CloseWindow()
}

func (w *Window) drawOverlay(s game.Snapshot) {
	var best float64
	if w.source != nil {
		_, best = w.source.Best()
	}

	w.hud.Draw(ui.HUDData{
		Generation:  s.Generation,
		Tick:        s.Tick,
		Score:       s.Score,
		Alive:       s.Alive,
		Population:  s.Population,
		BestFitness: best,
		FPS:         rl.GetFPS(),
	})

	screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	w.hud.DrawControls(screenH, "N: next generation | B: brain | Esc: quit")

	if w.source == nil {
		return
	}

	top := w.source.TopSpecies(5)
	infos := make([]ui.SpeciesInfo, len(top))
	for i, sp := range top {
		infos[i] = ui.SpeciesInfo{
			ID:      sp.ID,
			Size:    sp.Size,
			Age:     sp.Age,
			BestFit: sp.BestFit,
			Color:   toColor(sp.Color),
		}
	}
	w.species.Draw(infos)

	if w.showBrain {
		genome, _ := w.source.Best()
		ui.DrawBrainGraph(screenW-210, screenH-170, 200, 140, genome)
	}
}

func toColor(c neural.SpeciesColor) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
}
