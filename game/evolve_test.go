package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

type fakeDriver struct {
	policies []neural.Policy
	reports  [][]float64
	err      error
}

func (d *fakeDriver) Policies() ([]neural.Policy, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.policies, nil
}

func (d *fakeDriver) Report(fitness []float64) error {
	d.reports = append(d.reports, fitness)
	return nil
}

type memorySink struct {
	stats []telemetry.GenerationStats
}

func (s *memorySink) RecordGeneration(stats telemetry.GenerationStats) error {
	s.stats = append(s.stats, stats)
	return nil
}

type closedPresenter struct {
	Headless
}

func (closedPresenter) Closed() bool { return true }

func TestEvolutionRunsAllGenerations(t *testing.T) {
	cfg := testConfig()
	cfg.Evolution.MaxGenerations = 3
	cfg.Evolution.FitnessThreshold = 0

	driver := &fakeDriver{policies: []neural.Policy{noop, noop}}
	sink := &memorySink{}

	evo := NewEvolution(cfg, driver, nil, rand.New(rand.NewSource(1)))
	evo.AddSink(sink)
	evo.SetPerf(telemetry.NewPerfCollector(), nil)

	res, err := evo.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 3 || len(driver.reports) != 3 || len(sink.stats) != 3 {
		t.Fatalf("generations = %d, reports = %d, stats = %d, want 3 each",
			res.Generations, len(driver.reports), len(sink.stats))
	}
	if math.Abs(res.BestFitness-1.3) > 1e-9 || res.BestGeneration != 0 {
		t.Errorf("best = %v at generation %d, want 1.3 at 0", res.BestFitness, res.BestGeneration)
	}
	for i, s := range sink.stats {
		if s.Generation != i || s.Ticks != 23 || s.Population != 2 {
			t.Errorf("stats %d = %+v", i, s)
		}
	}
}

func TestEvolutionStopsAtThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Evolution.MaxGenerations = 10
	cfg.Evolution.FitnessThreshold = 1.0

	driver := &fakeDriver{policies: []neural.Policy{noop}}
	res, err := NewEvolution(cfg, driver, nil, rand.New(rand.NewSource(1))).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 1 || len(driver.reports) != 1 {
		t.Errorf("generations = %d, reports = %d, want 1", res.Generations, len(driver.reports))
	}
}

func TestEvolutionCancelSkipsReport(t *testing.T) {
	cfg := testConfig()
	cfg.Evolution.MaxGenerations = 5

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &fakeDriver{policies: []neural.Policy{jumper}}
	sink := &memorySink{}
	evo := NewEvolution(cfg, driver, nil, rand.New(rand.NewSource(1)))
	evo.AddSink(sink)

	res, err := evo.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(driver.reports) != 0 {
		t.Errorf("driver got %d reports, want none", len(driver.reports))
	}
	if res.Generations != 1 || len(sink.stats) != 1 {
		t.Errorf("generations = %d, stats = %d, want the cut-short generation recorded", res.Generations, len(sink.stats))
	}
}

func TestEvolutionStopsWhenPresenterClosed(t *testing.T) {
	cfg := testConfig()
	cfg.Evolution.MaxGenerations = 5
	cfg.Evolution.FitnessThreshold = 0

	driver := &fakeDriver{policies: []neural.Policy{noop}}
	res, err := NewEvolution(cfg, driver, closedPresenter{}, rand.New(rand.NewSource(1))).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 1 {
		t.Errorf("generations = %d, want 1", res.Generations)
	}
}

func TestEvolutionDriverError(t *testing.T) {
	cfg := testConfig()
	boom := errors.New("boom")

	_, err := NewEvolution(cfg, &fakeDriver{err: boom}, nil, rand.New(rand.NewSource(1))).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped driver error", err)
	}

	_, err = NewEvolution(cfg, &fakeDriver{}, nil, rand.New(rand.NewSource(1))).Run(context.Background())
	if !errors.Is(err, ErrNoPolicies) {
		t.Errorf("err = %v, want ErrNoPolicies", err)
	}
}

func TestEvolutionWithPopulation(t *testing.T) {
	cfg := testConfig()
	cfg.Evolution.Population = 12
	cfg.Evolution.MaxGenerations = 3
	cfg.Evolution.MaxTicks = 120
	cfg.Evolution.FitnessThreshold = 0

	pop := neural.NewPopulation(cfg, rand.New(rand.NewSource(2)))
	sink := &memorySink{}
	evo := NewEvolution(cfg, pop, nil, rand.New(rand.NewSource(3)))
	evo.AddSink(sink)

	res, err := evo.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 3 || pop.Generation() != 3 {
		t.Errorf("generations = %d, population generation = %d, want 3", res.Generations, pop.Generation())
	}
	if pop.Size() != 12 {
		t.Errorf("population size = %d, want 12", pop.Size())
	}
	for _, s := range sink.stats {
		if s.Species < 1 {
			t.Errorf("generation %d reported %d species", s.Generation, s.Species)
		}
		if s.Population != 12 {
			t.Errorf("generation %d population = %d, want 12", s.Generation, s.Population)
		}
	}
}
