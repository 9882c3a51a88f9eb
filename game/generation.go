// Package game runs generations of policy-driven birds through the shared simulation.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

// ErrNoPolicies is returned when a generation is started without any policy.
var ErrNoPolicies = errors.New("no policies supplied")

// State is the lifecycle stage of a Generation.
type State uint8

const (
	StateInitializing State = iota
	StateEvaluating
	StateConcluded
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateEvaluating:
		return "evaluating"
	case StateConcluded:
		return "concluded"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// PhaseTimer receives per-tick phase boundaries. *telemetry.PerfCollector implements it.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Generation evaluates one population of policies until every bird is gone or
// the run is cut short.
//
// The active birds are kept in parallel sequences (entities, policies, fitness
// accumulators, original indices) that always have the same length and are
// compacted together.
type Generation struct {
	cfg   *config.Config
	index int

	world     *ecs.World
	birdMap   *ecs.Map3[components.Position, components.Flight, components.Tilt]
	posMap    *ecs.Map1[components.Position]
	flightMap *ecs.Map1[components.Flight]
	tiltMap   *ecs.Map1[components.Tilt]
	body      components.Body

	agents   []ecs.Entity
	policies []neural.Policy
	fitness  []*float64
	ids      []int

	results []float64 // per original index, target of the accumulators
	dead    []int     // scratch for mark-and-compact

	pipes *systems.PipeStream
	base  components.Base
	score int
	tick  int
	state State

	policyErrors int

	parallel *parallelState
	perf     PhaseTimer
}

// NewGeneration places one bird per policy at the spawn point, with a single
// pipe at the spawn x and a fresh ground. rng drives the pipe gap heights.
func NewGeneration(cfg *config.Config, index int, policies []neural.Policy, rng *rand.Rand) (*Generation, error) {
	if len(policies) == 0 {
		return nil, ErrNoPolicies
	}

	world := ecs.NewWorld()
	n := len(policies)
	g := &Generation{
		cfg:       cfg,
		index:     index,
		world:     world,
		birdMap:   ecs.NewMap3[components.Position, components.Flight, components.Tilt](world),
		posMap:    ecs.NewMap1[components.Position](world),
		flightMap: ecs.NewMap1[components.Flight](world),
		tiltMap:   ecs.NewMap1[components.Tilt](world),
		body:      components.Body{W: cfg.Bird.Width, H: cfg.Bird.Height},
		agents:    make([]ecs.Entity, n),
		policies:  make([]neural.Policy, n),
		fitness:   make([]*float64, n),
		ids:       make([]int, n),
		results:   make([]float64, n),
		dead:      make([]int, 0, n),
		state:     StateInitializing,
	}

	for i, p := range policies {
		pos := components.Position{X: cfg.Bird.SpawnX, Y: cfg.Bird.SpawnY}
		fl := components.Flight{RefHeight: pos.Y}
		tilt := components.Tilt{}

		g.agents[i] = g.birdMap.NewEntity(&pos, &fl, &tilt)
		g.policies[i] = p
		g.fitness[i] = &g.results[i]
		g.ids[i] = i
	}

	g.pipes = systems.NewPipeStream(cfg.Pipe, rng)
	g.base = systems.NewBase(cfg.Base)
	g.parallel = newParallelState(cfg.Derived.Workers)
	g.state = StateEvaluating

	return g, nil
}

// SetPerf attaches a phase timer. A nil timer disables timing.
func (g *Generation) SetPerf(p PhaseTimer) {
	g.perf = p
}

// Index returns the generation number given at construction.
func (g *Generation) Index() int { return g.index }

// State returns the current lifecycle stage.
func (g *Generation) State() State { return g.state }

// Tick returns the number of completed ticks.
func (g *Generation) Tick() int { return g.tick }

// Score returns the number of pipes passed so far.
func (g *Generation) Score() int { return g.score }

// Alive returns the number of active birds.
func (g *Generation) Alive() int { return len(g.agents) }

// Population returns the number of birds the generation started with.
func (g *Generation) Population() int { return len(g.results) }

// PolicyErrors returns how many policy evaluations failed and were treated as NoOp.
func (g *Generation) PolicyErrors() int { return g.policyErrors }

// Fitness returns the fitness of every bird in original order. Removed birds
// keep the value they had when they were removed.
func (g *Generation) Fitness() []float64 {
	out := make([]float64, len(g.results))
	copy(out, g.results)
	return out
}

// Conclude ends the generation. Remaining birds keep their current fitness.
func (g *Generation) Conclude() {
	if g.state == StateConcluded {
		return
	}
	g.state = StateConcluded
	g.parallel.stopWorkers()
	slog.Debug("generation concluded",
		"generation", g.index,
		"tick", g.tick,
		"score", g.score,
		"alive", len(g.agents),
	)
}

// Step runs one full tick and returns the resulting state. In parallel mode the
// first Step starts the worker pool; a caller that drives Step directly must end
// an unfinished generation with Conclude to stop it.
func (g *Generation) Step() State {
	if g.state != StateEvaluating {
		return g.state
	}
	if len(g.agents) == 0 {
		g.Conclude()
		return g.state
	}

	g.tick++
	g.startTick()

	// Advance, reward survival, decide
	g.startPhase(telemetry.PhasePolicy)
	g.stepAgents()

	// The lead bird's x drives passage
	g.startPhase(telemetry.PhasePipes)
	passed := g.pipes.Tick(g.posMap.Get(g.agents[0]).X)

	g.startPhase(telemetry.PhaseCollisions)
	g.removeCrashed()

	// Only birds that survived this tick's collisions earn the bonus
	g.startPhase(telemetry.PhaseScoring)
	if passed {
		g.score++
		for _, f := range g.fitness {
			*f += g.cfg.Fitness.PassageBonus
		}
		g.pipes.Spawn()
	}

	g.startPhase(telemetry.PhaseGround)
	systems.ScrollBase(&g.base, g.cfg.Base)
	g.removeOutOfBounds()

	g.endTick()

	if len(g.agents) == 0 {
		g.Conclude()
	}
	return g.state
}

// Run steps until the generation concludes, the tick budget is spent, the
// presenter asks to stop, or ctx is done. Cancellation still concludes the
// generation and returns the fitness reached so far together with ctx.Err().
func (g *Generation) Run(ctx context.Context, p Presenter) ([]float64, error) {
	budget := g.cfg.Evolution.MaxTicks

	for g.state != StateConcluded {
		if err := ctx.Err(); err != nil {
			g.Conclude()
			return g.Fitness(), err
		}
		if budget > 0 && g.tick >= budget {
			g.Conclude()
			break
		}

		g.Step()

		if p != nil && p.Present(g.Snapshot()) {
			g.Conclude()
		}
	}
	return g.Fitness(), nil
}

// stepAgents advances every bird in index order, on the worker pool when the
// population is large enough.
func (g *Generation) stepAgents() {
	if g.parallel.enabled(len(g.agents), g.cfg.Evolution.ParallelThreshold) {
		g.stepAgentsParallel()
		return
	}

	for i, e := range g.agents {
		pos := g.posMap.Get(e)
		fl := g.flightMap.Get(e)
		tilt := g.tiltMap.Get(e)

		systems.Advance(pos, fl, tilt, g.cfg.Bird)
		*g.fitness[i] += g.cfg.Fitness.SurvivalReward

		action, err := decide(g.policies[i], neural.Observe(pos.Y, g.pipes.LeadFor(pos.X)))
		if err != nil {
			g.policyFailed(i, err)
			continue
		}
		if action == neural.ActionJump {
			systems.Impulse(pos, fl, g.cfg.Bird)
		}
	}
}

func (g *Generation) policyFailed(i int, err error) {
	g.policyErrors++
	slog.Warn("policy_error",
		"generation", g.index,
		"tick", g.tick,
		"agent", g.ids[i],
		"error", err,
	)
}

// removeCrashed removes birds touching the lead pipe or outside the playfield,
// charging the death penalty.
func (g *Generation) removeCrashed() {
	g.dead = g.dead[:0]
	for i, e := range g.agents {
		pos := g.posMap.Get(e)
		lead := g.pipes.LeadFor(pos.X)
		if systems.Collides(*pos, g.body, lead, g.cfg.Pipe) || systems.OutOfBounds(*pos, g.body, g.cfg.Derived.GroundY) {
			*g.fitness[i] += g.cfg.Fitness.DeathPenalty
			g.dead = append(g.dead, i)
		}
	}
	g.removeAgents(g.dead)
}

// removeOutOfBounds re-checks the boundary rule without a penalty.
func (g *Generation) removeOutOfBounds() {
	g.dead = g.dead[:0]
	for i, e := range g.agents {
		if systems.OutOfBounds(*g.posMap.Get(e), g.body, g.cfg.Derived.GroundY) {
			g.dead = append(g.dead, i)
		}
	}
	g.removeAgents(g.dead)
}

// removeAgents drops the given ascending indices from every parallel sequence,
// highest index first so lower indices stay valid.
func (g *Generation) removeAgents(indices []int) {
	if len(indices) == 0 {
		return
	}
	for k := len(indices) - 1; k >= 0; k-- {
		i := indices[k]
		g.world.RemoveEntity(g.agents[i])
		g.agents = slices.Delete(g.agents, i, i+1)
		g.policies = slices.Delete(g.policies, i, i+1)
		g.fitness = slices.Delete(g.fitness, i, i+1)
		g.ids = slices.Delete(g.ids, i, i+1)
	}
	g.checkAligned()
}

// checkAligned panics if the parallel sequences diverged.
func (g *Generation) checkAligned() {
	n := len(g.agents)
	if len(g.policies) != n || len(g.fitness) != n || len(g.ids) != n {
		panic(fmt.Sprintf("game: parallel sequences misaligned: agents=%d policies=%d fitness=%d ids=%d",
			n, len(g.policies), len(g.fitness), len(g.ids)))
	}
}

func (g *Generation) startTick() {
	if g.perf != nil {
		g.perf.StartTick()
	}
}

func (g *Generation) startPhase(phase string) {
	if g.perf != nil {
		g.perf.StartPhase(phase)
	}
}

func (g *Generation) endTick() {
	if g.perf != nil {
		g.perf.EndTick()
	}
}
