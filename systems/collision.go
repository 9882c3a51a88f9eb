package systems

import (
	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// rect is an axis-aligned box in playfield coordinates.
type rect struct {
	minX, minY, maxX, maxY float64
}

func (a rect) overlaps(b rect) bool {
	return a.minX < b.maxX && b.minX < a.maxX && a.minY < b.maxY && b.minY < a.maxY
}

// birdRect returns the bird's visual bounds.
func birdRect(pos components.Position, body components.Body) rect {
	return rect{minX: pos.X, minY: pos.Y, maxX: pos.X + body.W, maxY: pos.Y + body.H}
}

// topBarrier returns the bounds of a pipe's upper barrier.
func topBarrier(pipe components.Pipe, p config.PipeConfig) rect {
	return rect{minX: pipe.X, minY: pipe.Top, maxX: pipe.X + p.Width, maxY: pipe.Height}
}

func bottomBarrier(pipe components.Pipe, p config.PipeConfig) rect {
	return rect{minX: pipe.X, minY: pipe.Bottom, maxX: pipe.X + p.Width, maxY: pipe.Bottom + p.Height}
}

// Collides reports whether a bird overlaps either barrier of a pipe.
// Pure query, safe to call every tick for every live bird.
func Collides(pos components.Position, body components.Body, pipe components.Pipe, p config.PipeConfig) bool {
	b := birdRect(pos, body)
	return b.overlaps(topBarrier(pipe, p)) || b.overlaps(bottomBarrier(pipe, p))
}

// OutOfBounds reports whether a bird flew above the playfield or struck the ground.
func OutOfBounds(pos components.Position, body components.Body, groundY float64) bool {
	return pos.Y < 0 || pos.Y+body.H >= groundY
}
