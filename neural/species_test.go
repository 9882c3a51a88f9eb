package neural

import (
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

func TestSpeciesManagerAssignSpecies(t *testing.T) {
	opts := NewOptions(testOptions().NEAT, 1)
	sm := NewSpeciesManager(opts)

	genome := CreateBrainGenomeWithWeights(1, [BrainInputs]float64{1, 1, 1, 1})
	id := sm.AssignSpecies(genome)
	if id == 0 {
		t.Fatal("expected non-zero species ID")
	}
	if again := sm.AssignSpecies(genome); again != id {
		t.Errorf("same genome should get same species: %d != %d", again, id)
	}

	// Far apart in weight space
	opts.CompatThreshold = 0.1
	other := CreateBrainGenomeWithWeights(2, [BrainInputs]float64{5, 5, 5, 5})
	if got := sm.AssignSpecies(other); got == id {
		t.Error("incompatible genome joined existing species")
	}
	if len(sm.Species) != 2 {
		t.Errorf("expected 2 species, got %d", len(sm.Species))
	}
}

func TestSpeciate(t *testing.T) {
	opts := NewOptions(testOptions().NEAT, 4)
	opts.CompatThreshold = 0.5
	sm := NewSpeciesManager(opts)

	genomes := []*genetics.Genome{
		CreateBrainGenomeWithWeights(1, [BrainInputs]float64{1, 1, 1, 1}),
		CreateBrainGenomeWithWeights(2, [BrainInputs]float64{5, 5, 5, 5}),
		CreateBrainGenomeWithWeights(3, [BrainInputs]float64{1.1, 1, 1, 1}),
		CreateBrainGenomeWithWeights(4, [BrainInputs]float64{5, 5, 5, 5.2}),
	}

	assignment := sm.Speciate(genomes)
	if len(assignment) != len(genomes) {
		t.Fatalf("expected %d assignments, got %d", len(genomes), len(assignment))
	}
	if assignment[0] != assignment[2] || assignment[1] != assignment[3] || assignment[0] == assignment[1] {
		t.Errorf("unexpected assignment %v", assignment)
	}

	total := 0
	for _, sp := range sm.Species {
		total += len(sp.Members)
	}
	if total != len(genomes) {
		t.Errorf("members add up to %d, want %d", total, len(genomes))
	}

	// Re-speciating clears previous membership
	sm.Speciate(genomes)
	for _, sp := range sm.Species {
		if len(sp.Members) != 2 {
			t.Errorf("species %d has %d members, want 2", sp.ID, len(sp.Members))
		}
	}
}

func TestRecordFitnessStaleness(t *testing.T) {
	opts := NewOptions(testOptions().NEAT, 2)
	sm := NewSpeciesManager(opts)
	genomes := []*genetics.Genome{
		CreateBrainGenomeWithWeights(1, [BrainInputs]float64{1, 1, 1, 1}),
		CreateBrainGenomeWithWeights(2, [BrainInputs]float64{1, 1, 1, 1}),
	}

	sm.Speciate(genomes)
	sm.RecordFitness(genomes, []float64{2, 4})
	sm.EndGeneration()

	sp := sm.Species[0]
	if sp.BestFitness != 4 || sp.AvgFitness != 3 || sp.Staleness != 0 {
		t.Errorf("got best %v avg %v staleness %d", sp.BestFitness, sp.AvgFitness, sp.Staleness)
	}
	if sp.Representative != genomes[1] {
		t.Error("representative should be the fittest member")
	}

	sm.Speciate(genomes)
	sm.RecordFitness(genomes, []float64{1, 1})
	if sp.Staleness != 1 || sp.BestFitness != 4 {
		t.Errorf("no improvement: got staleness %d best %v", sp.Staleness, sp.BestFitness)
	}
}

func TestRemoveStaleSpeciesKeepsChampion(t *testing.T) {
	opts := NewOptions(testOptions().NEAT, 3)
	opts.DropOffAge = 2
	sm := NewSpeciesManager(opts)

	sm.Species = []*Species{
		{ID: 1, Members: []int{0}, BestFitness: 10, Staleness: 5},
		{ID: 2, Members: []int{1}, BestFitness: 3, Staleness: 5},
		{ID: 3, Members: []int{2}, BestFitness: 1, Staleness: 0},
		{ID: 4, Members: nil, BestFitness: 20, Staleness: 0},
	}
	sm.RemoveStaleSpecies()

	var ids []int
	for _, sp := range sm.Species {
		ids = append(ids, sp.ID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("kept species %v, want [1 3]", ids)
	}
}

func TestSpeciesColorsDiversity(t *testing.T) {
	colors := generateDistinctColors(16)
	seen := make(map[SpeciesColor]bool)
	for _, c := range colors {
		if seen[c] {
			t.Errorf("duplicate color %v", c)
		}
		seen[c] = true
	}

	sm := NewSpeciesManager(NewOptions(testOptions().NEAT, 1))
	if got := sm.GetSpeciesColor(99); got != (SpeciesColor{R: 128, G: 128, B: 128}) {
		t.Errorf("unknown species color = %v, want gray", got)
	}
}

func TestGetStats(t *testing.T) {
	sm := NewSpeciesManager(NewOptions(testOptions().NEAT, 5))
	sm.Species = []*Species{
		{ID: 1, Members: []int{0, 1, 2}, BestFitness: 4, Staleness: 2},
		{ID: 2, Members: []int{3, 4}, BestFitness: 9, Staleness: 0},
	}

	stats := sm.GetStats()
	if stats.Count != 2 || stats.TotalMembers != 5 || stats.LargestSize != 3 || stats.SmallestSize != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.BestFitness != 9 || stats.AverageStaleness != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	top := sm.GetTopSpecies(1)
	if len(top) != 1 || top[0].ID != 1 {
		t.Errorf("top species = %+v, want ID 1", top)
	}
}
