package neural

import (
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappy/config"
)

func testOptions() *config.Config {
	return config.Default()
}

func TestGenomeIDGenerator(t *testing.T) {
	gen := NewGenomeIDGenerator()

	id1, id2 := gen.NextID(), gen.NextID()
	if id1 >= id2 {
		t.Errorf("IDs should be strictly increasing: %d, %d", id1, id2)
	}

	innov1, innov2 := gen.NextInnovation(), gen.NextInnovation()
	if innov1 >= innov2 || innov1 < initialInnovNum {
		t.Errorf("unexpected innovations: %d, %d", innov1, innov2)
	}
}

func TestCrossoverGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parent1 := CreateBrainGenome(1, 1, rng)
	parent2 := CreateBrainGenome(2, 1, rng)

	child, err := CrossoverGenomes(parent1, parent2, 1.0, 1.0, 3, rng)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if child.Id != 3 {
		t.Errorf("expected child ID 3, got %d", child.Id)
	}

	// Both parents are fully connected so every matching gene is inherited
	if len(child.Genes) != BrainInputs {
		t.Errorf("expected %d genes, got %d", BrainInputs, len(child.Genes))
	}
	for i, g := range child.Genes {
		w := g.Link.ConnectionWeight
		if w != parent1.Genes[i].Link.ConnectionWeight && w != parent2.Genes[i].Link.ConnectionWeight {
			t.Errorf("gene %d weight %v not inherited from either parent", i, w)
		}
	}

	if _, err := child.Genesis(child.Id); err != nil {
		t.Errorf("child genome does not build: %v", err)
	}
}

func TestCrossoverFitterParentContributesExcess(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	idGen := NewGenomeIDGenerator()

	fit := CreateBrainGenome(1, 1, rng)
	weak, err := CloneGenome(fit, 2)
	if err != nil {
		t.Fatalf("CloneGenome failed: %v", err)
	}
	if !addNode(fit, idGen, rng) {
		t.Fatal("addNode failed")
	}

	child, err := CrossoverGenomes(weak, fit, 1.0, 2.0, 3, rng)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if len(child.Genes) != len(fit.Genes) {
		t.Errorf("expected %d genes from fitter parent, got %d", len(fit.Genes), len(child.Genes))
	}

	child, err = CrossoverGenomes(weak, fit, 2.0, 1.0, 4, rng)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if len(child.Genes) != len(weak.Genes) {
		t.Errorf("expected %d genes from fitter parent, got %d", len(weak.Genes), len(child.Genes))
	}
}

func TestCrossoverNilParent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := CrossoverGenomes(nil, CreateBrainGenome(1, 1, rng), 0, 0, 2, rng); err == nil {
		t.Error("expected error for nil parent")
	}
}

func TestCloneGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	orig := CreateBrainGenome(1, 1, rng)

	clone, err := CloneGenome(orig, 42)
	if err != nil {
		t.Fatalf("CloneGenome failed: %v", err)
	}
	if clone.Id != 42 {
		t.Errorf("expected ID 42, got %d", clone.Id)
	}
	if len(clone.Genes) != len(orig.Genes) {
		t.Fatalf("gene count mismatch: %d vs %d", len(clone.Genes), len(orig.Genes))
	}

	clone.Genes[0].Link.ConnectionWeight = 99
	if orig.Genes[0].Link.ConnectionWeight == 99 {
		t.Error("clone shares link state with original")
	}
}

func TestMutateBrainGenomeKeepsAcyclic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	idGen := NewGenomeIDGenerator()
	opts := NewOptions(testOptions().NEAT, 1)
	opts.MutateAddNodeProb = 0.5
	opts.MutateAddLinkProb = 0.9
	opts.MutateToggleEnableProb = 0.3

	genome := CreateBrainGenome(1, 1, rng)
	for i := 0; i < 200; i++ {
		if _, err := MutateBrainGenome(genome, opts, idGen, rng); err != nil {
			t.Fatalf("mutation %d failed: %v", i, err)
		}
	}

	for _, g := range genome.Genes {
		if g.Link.OutNode.NeuronType == network.InputNeuron || g.Link.OutNode.NeuronType == network.BiasNeuron {
			t.Errorf("link %d -> %d targets a sensor", g.Link.InNode.Id, g.Link.OutNode.Id)
		}
		if reaches(genome.Genes, g.Link.OutNode.Id, g.Link.InNode.Id) {
			t.Errorf("link %d -> %d closes a cycle", g.Link.InNode.Id, g.Link.OutNode.Id)
		}
	}

	if _, err := NewBrainController(genome); err != nil {
		t.Fatalf("mutated genome does not build: %v", err)
	}
}

func TestToggleEnableKeepsOutputConnected(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	genome := CreateBrainGenomeWithWeights(1, [BrainInputs]float64{1, 1, 1, 1})

	for i := 0; i < 100; i++ {
		toggleEnable(genome, rng)
		if !hasEnabledOutputLink(genome) {
			t.Fatalf("toggle %d left the output disconnected", i)
		}
	}
}

func hasEnabledOutputLink(genome *genetics.Genome) bool {
	for _, g := range genome.Genes {
		if g.IsEnabled && g.Link.OutNode.Id == outputNodeID {
			return true
		}
	}
	return false
}

func TestGenomeCompatibility(t *testing.T) {
	opts := NewOptions(testOptions().NEAT, 1)

	a := CreateBrainGenomeWithWeights(1, [BrainInputs]float64{1, 1, 1, 1})
	b := CreateBrainGenomeWithWeights(2, [BrainInputs]float64{1, 1, 1, 1})
	c := CreateBrainGenomeWithWeights(3, [BrainInputs]float64{2, 2, 2, 2})

	if d := GenomeCompatibility(a, b, opts); d != 0 {
		t.Errorf("identical genomes: distance %v, want 0", d)
	}
	want := opts.MutdiffCoeff * 1.0
	if d := GenomeCompatibility(a, c, opts); d != want {
		t.Errorf("weight-only difference: distance %v, want %v", d, want)
	}
	if d1, d2 := GenomeCompatibility(a, c, opts), GenomeCompatibility(c, a, opts); d1 != d2 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}
