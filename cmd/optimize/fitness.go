package main

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
)

// FitnessEvaluator runs headless generations and computes fitness.
type FitnessEvaluator struct {
	ctx        context.Context
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestScore   int
	lastScore   float64 // mean pipes passed in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. ctx cancels running generations.
func NewFitnessEvaluator(ctx context.Context, params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		ctx:         ctx,
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestScore returns the most pipes passed by the best evaluation.
func (fe *FitnessEvaluator) BestScore() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestScore
}

// LastScore returns the mean pipes passed in the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	score   int
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean generation fitness of a single bird across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	weights := fe.params.Weights(x)

	// Run all seeds in parallel, one brain each
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runGeneration(weights, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalScore float64
	bestSeedScore := 0
	for _, r := range results {
		if r.err != nil {
			slog.Error("evaluation failed", "error", r.err)
			continue
		}
		totalFitness += r.fitness
		totalScore += float64(r.score)
		if r.score > bestSeedScore {
			bestSeedScore = r.score
		}
	}

	n := float64(len(fe.seeds))
	cost := -totalFitness / n

	fe.mu.Lock()
	if cost < fe.bestFitness {
		fe.bestFitness = cost
		fe.bestScore = bestSeedScore
	}
	fe.lastScore = totalScore / n
	fe.mu.Unlock()

	return cost
}

// runGeneration plays one single-bird generation until the bird dies or the
// tick budget runs out.
func (fe *FitnessEvaluator) runGeneration(weights [neural.BrainInputs]float64, seed int64) seedResult {
	cfg := fe.copyConfig()

	brain, err := neural.NewBrainController(neural.CreateBrainGenomeWithWeights(0, weights))
	if err != nil {
		return seedResult{err: err}
	}

	g, err := game.NewGeneration(cfg, 0, []neural.Policy{brain}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return seedResult{err: err}
	}

	fitness, err := g.Run(fe.ctx, game.Headless{})
	if err != nil {
		return seedResult{err: err}
	}
	return seedResult{fitness: fitness[0], score: g.Score()}
}

// copyConfig returns a copy of the base config with this evaluator's tick budget.
// A single bird never benefits from parallel stepping.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Evolution.Population = 1
	cfg.Evolution.MaxTicks = fe.maxTicks
	cfg.Derived.Workers = 1
	return &cfg
}
