package game

import "github.com/pthm-cable/flappy/components"

// BirdView is the read-only view of one active bird.
type BirdView struct {
	ID    int // Original index in the generation
	X, Y  float64
	Angle float64
}

// Snapshot is a stable copy of the generation state taken between ticks.
type Snapshot struct {
	Generation int
	Tick       int
	Score      int
	Alive      int
	Population int
	State      State

	Birds []BirdView
	Pipes []components.Pipe
	Base  components.Base
	Body  components.Body
}

// Presenter displays snapshots. Returning true asks the generation to stop at
// the current tick boundary.
type Presenter interface {
	Present(s Snapshot) (stop bool)
}

// PresenterFunc adapts a plain function to the Presenter interface.
type PresenterFunc func(s Snapshot) bool

// Present calls f.
func (f PresenterFunc) Present(s Snapshot) bool {
	return f(s)
}

// Headless is a Presenter that shows nothing and never stops.
type Headless struct{}

// Present implements Presenter.
func (Headless) Present(Snapshot) bool { return false }

// Snapshot copies the current state for presentation.
func (g *Generation) Snapshot() Snapshot {
	birds := make([]BirdView, len(g.agents))
	for i, e := range g.agents {
		pos := g.posMap.Get(e)
		birds[i] = BirdView{
			ID:    g.ids[i],
			X:     pos.X,
			Y:     pos.Y,
			Angle: g.tiltMap.Get(e).Angle,
		}
	}

	return Snapshot{
		Generation: g.index,
		Tick:       g.tick,
		Score:      g.score,
		Alive:      len(g.agents),
		Population: len(g.results),
		State:      g.state,
		Birds:      birds,
		Pipes:      g.pipes.Pipes(),
		Base:       g.base,
		Body:       g.body,
	}
}
