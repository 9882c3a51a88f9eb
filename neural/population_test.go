package neural

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/flappy/config"
)

func smallConfig(size int) *config.Config {
	cfg := config.Default()
	cfg.Evolution.Population = size
	return cfg
}

func TestNewPopulation(t *testing.T) {
	pop := NewPopulation(smallConfig(20), rand.New(rand.NewSource(1)))

	if pop.Size() != 20 {
		t.Errorf("expected 20 genomes, got %d", pop.Size())
	}
	if pop.Generation() != 0 {
		t.Errorf("expected generation 0, got %d", pop.Generation())
	}

	policies, err := pop.Policies()
	if err != nil {
		t.Fatalf("Policies failed: %v", err)
	}
	if len(policies) != 20 {
		t.Fatalf("expected 20 policies, got %d", len(policies))
	}
	for i, p := range policies {
		if _, err := p.Evaluate(Observation{350, 100, 100}); err != nil {
			t.Errorf("policy %d: %v", i, err)
		}
	}
	if len(pop.Species()) == 0 {
		t.Error("expected at least one species after building policies")
	}
}

func TestPopulationReportWrongLength(t *testing.T) {
	pop := NewPopulation(smallConfig(5), rand.New(rand.NewSource(1)))
	if err := pop.Report([]float64{1, 2}); err == nil {
		t.Error("expected error for mismatched fitness length")
	}
}

func TestPopulationKeepsSize(t *testing.T) {
	pop := NewPopulation(smallConfig(30), rand.New(rand.NewSource(4)))
	rng := rand.New(rand.NewSource(99))

	for gen := 0; gen < 8; gen++ {
		if _, err := pop.Policies(); err != nil {
			t.Fatalf("gen %d: Policies failed: %v", gen, err)
		}
		fitness := make([]float64, pop.Size())
		for i := range fitness {
			fitness[i] = rng.Float64()*20 - 1
		}
		if err := pop.Report(fitness); err != nil {
			t.Fatalf("gen %d: Report failed: %v", gen, err)
		}
		if pop.Size() != 30 {
			t.Fatalf("gen %d: population size %d, want 30", gen, pop.Size())
		}
	}
	if pop.Generation() != 8 {
		t.Errorf("expected generation 8, got %d", pop.Generation())
	}
}

func TestPopulationTracksBest(t *testing.T) {
	pop := NewPopulation(smallConfig(10), rand.New(rand.NewSource(2)))
	champion := pop.Genomes()[7]

	fitness := make([]float64, 10)
	fitness[7] = 12.5
	if err := pop.Report(fitness); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	best, f := pop.Best()
	if best != champion || f != 12.5 {
		t.Errorf("best = genome %d (%v), want genome %d (12.5)", best.Id, f, champion.Id)
	}

	// A worse generation does not replace the record
	if err := pop.Report(make([]float64, 10)); err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if _, f := pop.Best(); f != 12.5 {
		t.Errorf("best fitness = %v, want 12.5", f)
	}
}

func TestPopulationDeterministic(t *testing.T) {
	run := func() []float64 {
		pop := NewPopulation(smallConfig(25), rand.New(rand.NewSource(17)))
		for gen := 0; gen < 5; gen++ {
			fitness := make([]float64, pop.Size())
			for i := range fitness {
				fitness[i] = float64((i*7+gen)%11) - 1
			}
			if _, err := pop.Policies(); err != nil {
				t.Fatalf("Policies failed: %v", err)
			}
			if err := pop.Report(fitness); err != nil {
				t.Fatalf("Report failed: %v", err)
			}
		}
		var weights []float64
		for _, g := range pop.Genomes() {
			for _, gene := range g.Genes {
				weights = append(weights, gene.Link.ConnectionWeight)
			}
		}
		return weights
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("gene counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("weight %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAllocateSumsToPopulation(t *testing.T) {
	pop := NewPopulation(smallConfig(10), rand.New(rand.NewSource(3)))
	pop.species.Species = []*Species{
		{ID: 1, Members: []int{0, 1, 2}},
		{ID: 2, Members: []int{3, 4, 5, 6}},
		{ID: 3, Members: []int{7, 8, 9}},
	}

	tests := []struct {
		name    string
		fitness []float64
	}{
		{"uniform", make([]float64, 10)},
		{"negative", []float64{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1}},
		{"skewed", []float64{10, 9, 8, 0, 0, 0, 0, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := pop.allocate(tt.fitness)
			sum := 0
			for _, c := range counts {
				if c < 0 {
					t.Errorf("negative allocation %v", counts)
				}
				sum += c
			}
			if sum != 10 {
				t.Errorf("allocation %v sums to %d, want 10", counts, sum)
			}
		})
	}

	counts := pop.allocate([]float64{10, 9, 8, 0, 0, 0, 0, 1, 1, 1})
	if counts[0] <= counts[2] || counts[1] != 0 {
		t.Errorf("skewed allocation %v should favour species 1 and starve species 2", counts)
	}
}
