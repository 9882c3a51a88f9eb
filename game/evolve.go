package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

// Driver supplies the policies for each generation and receives their fitness.
// *neural.Population implements it.
type Driver interface {
	Policies() ([]neural.Policy, error)
	Report(fitness []float64) error
}

// StatsSink receives the stats of every concluded generation.
type StatsSink interface {
	RecordGeneration(stats telemetry.GenerationStats) error
}

// PerfSink receives the tick timings of every generation.
type PerfSink interface {
	WritePerf(stats telemetry.PerfStats) error
}

// speciesReporter is implemented by drivers that group policies into species.
type speciesReporter interface {
	SpeciesStats() neural.SpeciesStats
}

// closer is implemented by presenters whose surface can be closed by the user.
type closer interface {
	Closed() bool
}

// Result summarises an evolution run.
type Result struct {
	Generations    int
	BestFitness    float64
	BestGeneration int
}

// Evolution runs generations back to back: driver policies, a full generation,
// stats, then the driver report.
type Evolution struct {
	cfg       *config.Config
	driver    Driver
	presenter Presenter
	rng       *rand.Rand

	sinks    []StatsSink
	perf     *telemetry.PerfCollector
	perfSink PerfSink
	logStats bool

	statsCallback func(telemetry.GenerationStats)
}

// NewEvolution creates a runner. A nil presenter runs headless.
func NewEvolution(cfg *config.Config, driver Driver, presenter Presenter, rng *rand.Rand) *Evolution {
	if presenter == nil {
		presenter = Headless{}
	}
	return &Evolution{
		cfg:       cfg,
		driver:    driver,
		presenter: presenter,
		rng:       rng,
	}
}

// AddSink registers a destination for generation stats.
func (e *Evolution) AddSink(s StatsSink) {
	e.sinks = append(e.sinks, s)
}

// SetPerf enables tick timing. sink may be nil.
func (e *Evolution) SetPerf(p *telemetry.PerfCollector, sink PerfSink) {
	e.perf = p
	e.perfSink = sink
}

// SetLogStats enables console logging of stats and timings.
func (e *Evolution) SetLogStats(enabled bool) {
	e.logStats = enabled
}

// SetStatsCallback sets a function called with every generation's stats.
func (e *Evolution) SetStatsCallback(fn func(telemetry.GenerationStats)) {
	e.statsCallback = fn
}

// Run evaluates generations until the generation limit or the fitness threshold
// is reached, the presenter is closed, or ctx is done. A cancelled generation is
// recorded but not reported to the driver, and Run returns ctx.Err().
func (e *Evolution) Run(ctx context.Context) (Result, error) {
	res := Result{BestGeneration: -1}
	limit := e.cfg.Evolution.MaxGenerations
	threshold := e.cfg.Evolution.FitnessThreshold

	for gen := 0; limit <= 0 || gen < limit; gen++ {
		policies, err := e.driver.Policies()
		if err != nil {
			return res, fmt.Errorf("generation %d policies: %w", gen, err)
		}

		g, err := NewGeneration(e.cfg, gen, policies, e.rng)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", gen, err)
		}
		if e.perf != nil {
			e.perf.BeginGeneration(gen)
			g.SetPerf(e.perf)
		}

		start := time.Now()
		fitness, runErr := g.Run(ctx, e.presenter)

		stats := telemetry.NewGenerationStats(gen, g.Tick(), g.Score(), fitness, time.Since(start))
		stats.PolicyErrors = g.PolicyErrors()
		if sr, ok := e.driver.(speciesReporter); ok {
			stats.Species = sr.SpeciesStats().Count
		}
		e.record(stats)

		res.Generations = gen + 1
		if res.BestGeneration < 0 || stats.BestFitness > res.BestFitness {
			res.BestFitness = stats.BestFitness
			res.BestGeneration = gen
		}

		if runErr != nil {
			return res, runErr
		}

		if err := e.driver.Report(fitness); err != nil {
			return res, fmt.Errorf("generation %d report: %w", gen, err)
		}

		if threshold > 0 && stats.BestFitness >= threshold {
			slog.Info("fitness threshold reached",
				"generation", gen,
				"best", stats.BestFitness,
				"threshold", threshold,
			)
			break
		}
		if c, ok := e.presenter.(closer); ok && c.Closed() {
			slog.Info("presentation closed", "generation", gen)
			break
		}
	}

	return res, nil
}

// record logs a generation and forwards it to every sink.
func (e *Evolution) record(stats telemetry.GenerationStats) {
	if e.statsCallback != nil {
		e.statsCallback(stats)
	}

	if e.logStats {
		stats.LogStats()
	} else {
		slog.Debug("generation", "stats", stats)
	}

	for _, s := range e.sinks {
		if err := s.RecordGeneration(stats); err != nil {
			slog.Error("failed to record generation", "generation", stats.Generation, "error", err)
		}
	}

	if e.perf == nil {
		return
	}
	perfStats := e.perf.Stats()
	if e.logStats {
		perfStats.LogStats()
	}
	if e.perfSink != nil {
		if err := e.perfSink.WritePerf(perfStats); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
