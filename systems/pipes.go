package systems

import (
	"math/rand"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// PipeStream keeps the ordered sequence of pipes, oldest (leftmost) first.
type PipeStream struct {
	pipes []components.Pipe
	cfg   config.PipeConfig
	rng   *rand.Rand
}

// NewPipeStream creates a stream holding a single pipe at the spawn position.
func NewPipeStream(cfg config.PipeConfig, rng *rand.Rand) *PipeStream {
	s := &PipeStream{
		pipes: make([]components.Pipe, 0, 4),
		cfg:   cfg,
		rng:   rng,
	}
	s.Spawn()
	return s
}

// NewPipe builds a pipe at x with the given gap height.
func NewPipe(x, height float64, cfg config.PipeConfig) components.Pipe {
	return components.Pipe{
		X:      x,
		Height: height,
		Top:    height - cfg.Height,
		Bottom: height + cfg.Gap,
	}
}

// Spawn appends a pipe at the spawn position with a fresh random gap height
// drawn from [MinHeight, MaxHeight).
func (s *PipeStream) Spawn() {
	height := s.cfg.MinHeight + s.rng.Intn(s.cfg.MaxHeight-s.cfg.MinHeight)
	s.pipes = append(s.pipes, NewPipe(s.cfg.SpawnX, float64(height), s.cfg))
}

// Tick scrolls every pipe, credits at most one passage and retires pipes that left
// the playfield. It returns true when the lead pipe was passed this tick; the caller
// decides when to Spawn the next pipe. An emptied stream refills itself.
func (s *PipeStream) Tick(leadAgentX float64) bool {
	for i := range s.pipes {
		s.pipes[i].X -= s.cfg.Velocity
	}

	spawn := false
	for i := range s.pipes {
		if s.pipes[i].Passed {
			continue
		}
		// Only the first unpassed pipe is tracked for passage
		if s.pipes[i].X < leadAgentX {
			s.pipes[i].Passed = true
			spawn = true
		}
		break
	}

	kept := s.pipes[:0]
	for _, p := range s.pipes {
		if p.X+s.cfg.Width <= 0 {
			continue
		}
		kept = append(kept, p)
	}
	s.pipes = kept

	if len(s.pipes) == 0 {
		s.Spawn()
	}

	return spawn
}

// LeadFor returns the pipe an agent at x should look at: the first pipe whose right
// edge has not passed x, or the earliest pipe if all have. On an empty stream it
// returns a phantom pipe at the spawn position centred in the height range.
func (s *PipeStream) LeadFor(x float64) components.Pipe {
	if len(s.pipes) == 0 {
		mid := float64(s.cfg.MinHeight+s.cfg.MaxHeight) / 2
		return NewPipe(s.cfg.SpawnX, mid, s.cfg)
	}
	for _, p := range s.pipes {
		if p.X+s.cfg.Width >= x {
			return p
		}
	}
	return s.pipes[0]
}

// Len returns the number of active pipes.
func (s *PipeStream) Len() int {
	return len(s.pipes)
}

// Pipes returns a copy of the active pipes, oldest first.
func (s *PipeStream) Pipes() []components.Pipe {
	out := make([]components.Pipe, len(s.pipes))
	copy(out, s.pipes)
	return out
}
