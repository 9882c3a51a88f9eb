package game

import (
	"sync"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/systems"
)

// birdSnapshot captures one bird's state for parallel processing.
type birdSnapshot struct {
	Pos    components.Position
	Flight components.Flight
	Tilt   components.Tilt
	Policy neural.Policy
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Pos    components.Position
	Flight components.Flight
	Tilt   components.Tilt
	Err    error
}

// workChunk represents a range of birds for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for the parallel advance-and-decide pass.
type parallelState struct {
	snapshots  []birdSnapshot
	intents    []intent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(numWorkers int) *parallelState {
	return &parallelState{
		numWorkers: max(numWorkers, 1),
	}
}

// enabled reports whether n birds should be processed on the worker pool.
func (p *parallelState) enabled(n, threshold int) bool {
	return p.numWorkers > 1 && n >= threshold
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Generation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Generation) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// stepAgentsParallel snapshots every bird, computes intents on the worker pool
// and applies them in index order.
func (g *Generation) stepAgentsParallel() {
	p := g.parallel

	// Phase A: snapshot (single-threaded)
	p.snapshots = p.snapshots[:0]
	for i, e := range g.agents {
		p.snapshots = append(p.snapshots, birdSnapshot{
			Pos:    *g.posMap.Get(e),
			Flight: *g.flightMap.Get(e),
			Tilt:   *g.tiltMap.Get(e),
			Policy: g.policies[i],
		})
	}

	n := len(p.snapshots)
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]

	// Phase B: compute
	g.computeParallel(n)

	// Phase C: apply (single-threaded, preserves determinism)
	g.applyIntents()
}

// computeParallel dispatches work to the worker pool and waits for every chunk.
func (g *Generation) computeParallel(n int) {
	p := g.parallel
	if !p.running {
		p.startWorkers(g)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk processes a range of snapshots for a single worker. It only
// reads the pipe stream, which is not mutated until the barrier.
func (g *Generation) computeChunk(i0, i1 int) {
	p := g.parallel
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]
		in := &p.intents[i]

		in.Pos, in.Flight, in.Tilt = snap.Pos, snap.Flight, snap.Tilt
		in.Err = nil

		systems.Advance(&in.Pos, &in.Flight, &in.Tilt, g.cfg.Bird)

		action, err := decide(snap.Policy, neural.Observe(in.Pos.Y, g.pipes.LeadFor(in.Pos.X)))
		if err != nil {
			in.Err = err
			continue
		}
		if action == neural.ActionJump {
			systems.Impulse(&in.Pos, &in.Flight, g.cfg.Bird)
		}
	}
}

// applyIntents writes computed results back to the components and credits the
// survival reward.
func (g *Generation) applyIntents() {
	for i, e := range g.agents {
		in := &g.parallel.intents[i]

		*g.posMap.Get(e) = in.Pos
		*g.flightMap.Get(e) = in.Flight
		*g.tiltMap.Get(e) = in.Tilt

		*g.fitness[i] += g.cfg.Fitness.SurvivalReward

		if in.Err != nil {
			g.policyFailed(i, in.Err)
		}
	}
}
