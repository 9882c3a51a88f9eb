package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/config"
)

// ErrExtinct is returned when no species survives to reproduce.
var ErrExtinct = errors.New("population extinct")

// Population is a generational NEAT driver. Each round it hands out one policy
// per genome, receives their fitness and breeds the next generation.
type Population struct {
	opts     *neat.Options
	elitism  int
	connProb float64
	rng      *rand.Rand
	idGen    *GenomeIDGenerator
	species  *SpeciesManager

	genomes    []*genetics.Genome
	assignment []int // species ID per genome, set when policies are built
	generation int

	best        *genetics.Genome
	bestFitness float64
}

// NewPopulation seeds a population of minimal brain genomes.
func NewPopulation(cfg *config.Config, rng *rand.Rand) *Population {
	size := cfg.Evolution.Population
	opts := NewOptions(cfg.NEAT, size)
	p := &Population{
		opts:        opts,
		elitism:     cfg.NEAT.Elitism,
		connProb:    cfg.NEAT.InitialConnectionProb,
		rng:         rng,
		idGen:       NewGenomeIDGenerator(),
		species:     NewSpeciesManager(opts),
		genomes:     make([]*genetics.Genome, size),
		bestFitness: math.Inf(-1),
	}
	for i := range p.genomes {
		p.genomes[i] = CreateBrainGenome(p.idGen.NextID(), p.connProb, rng)
	}
	return p
}

// Generation returns how many generations have been bred so far.
func (p *Population) Generation() int { return p.generation }

// Size returns the number of genomes per generation.
func (p *Population) Size() int { return len(p.genomes) }

// Genomes returns the current genomes.
func (p *Population) Genomes() []*genetics.Genome { return p.genomes }

// Species returns the live species of the current generation.
func (p *Population) Species() []*Species { return p.species.Species }

// SpeciesStats returns summary statistics about the current species.
func (p *Population) SpeciesStats() SpeciesStats { return p.species.GetStats() }

// Best returns the fittest genome reported so far and its fitness.
func (p *Population) Best() (*genetics.Genome, float64) {
	return p.best, p.bestFitness
}

// TopSpecies returns the n largest species of the current generation.
func (p *Population) TopSpecies(n int) []SpeciesInfo { return p.species.GetTopSpecies(n) }

// ColorOf returns the species color of the genome at index i.
func (p *Population) ColorOf(i int) SpeciesColor {
	if i < 0 || i >= len(p.assignment) {
		return p.species.GetSpeciesColor(0)
	}
	return p.species.GetSpeciesColor(p.assignment[i])
}

// Policies speciates the current genomes and builds one brain per genome,
// in population order.
func (p *Population) Policies() ([]Policy, error) {
	p.assignment = p.species.Speciate(p.genomes)

	policies := make([]Policy, len(p.genomes))
	for i, g := range p.genomes {
		brain, err := NewBrainController(g)
		if err != nil {
			return nil, fmt.Errorf("genome %d: %w", g.Id, err)
		}
		policies[i] = brain
	}
	return policies, nil
}

// Report takes the fitness of every genome, in population order, and breeds
// the next generation.
func (p *Population) Report(fitness []float64) error {
	if len(fitness) != len(p.genomes) {
		return fmt.Errorf("got %d fitness values for %d genomes", len(fitness), len(p.genomes))
	}
	if p.assignment == nil {
		p.assignment = p.species.Speciate(p.genomes)
	}

	for i, f := range fitness {
		if f > p.bestFitness {
			p.best, p.bestFitness = p.genomes[i], f
		}
	}

	p.species.RecordFitness(p.genomes, fitness)
	p.species.EndGeneration()
	if len(p.species.Species) == 0 {
		return ErrExtinct
	}

	counts := p.allocate(fitness)
	next := make([]*genetics.Genome, 0, len(p.genomes))
	for i, sp := range p.species.Species {
		children, err := p.breed(sp, counts[i], fitness)
		if err != nil {
			return fmt.Errorf("species %d: %w", sp.ID, err)
		}
		next = append(next, children...)
	}

	p.genomes = next
	p.assignment = nil
	p.generation++
	return nil
}

// allocate splits the population across species in proportion to their shared
// fitness: the mean member fitness after shifting everything to be non-negative.
func (p *Population) allocate(fitness []float64) []int {
	total := len(p.genomes)
	species := p.species.Species

	minFit := math.Inf(1)
	for _, sp := range species {
		for _, idx := range sp.Members {
			minFit = min(minFit, fitness[idx])
		}
	}

	shares := make([]float64, len(species))
	sum := 0.0
	for i, sp := range species {
		adj := 0.0
		for _, idx := range sp.Members {
			adj += fitness[idx] - minFit
		}
		shares[i] = adj / float64(len(sp.Members))
		sum += shares[i]
	}

	if sum <= 0 {
		for i := range shares {
			shares[i] = 1
		}
		sum = float64(len(shares))
	}

	// Largest remainder rounding so the counts add up exactly
	counts := make([]int, len(species))
	remainders := make([]float64, len(species))
	assigned := 0
	for i := range shares {
		exact := shares[i] / sum * float64(total)
		counts[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(counts[i])
		assigned += counts[i]
	}

	order := make([]int, len(species))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return remainders[order[a]] > remainders[order[b]] })
	for k := 0; assigned < total; k++ {
		counts[order[k%len(order)]]++
		assigned++
	}
	return counts
}

// breed produces n children for a species: elites are copied unchanged, the
// rest come from the top SurvivalThresh fraction by mutation or crossover.
func (p *Population) breed(sp *Species, n int, fitness []float64) ([]*genetics.Genome, error) {
	if n == 0 {
		return nil, nil
	}

	members := make([]int, len(sp.Members))
	copy(members, sp.Members)
	sort.SliceStable(members, func(a, b int) bool { return fitness[members[a]] > fitness[members[b]] })

	children := make([]*genetics.Genome, 0, n)

	elites := min(p.elitism, len(members), n)
	for k := 0; k < elites; k++ {
		child, err := CloneGenome(p.genomes[members[k]], p.idGen.NextID())
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	poolSize := int(math.Ceil(p.opts.SurvivalThresh * float64(len(members))))
	poolSize = max(1, min(poolSize, len(members)))
	pool := members[:poolSize]

	for len(children) < n {
		mom := pool[p.rng.Intn(len(pool))]

		var child *genetics.Genome
		var err error
		mutate := true
		if len(pool) == 1 || p.rng.Float64() < p.opts.MutateOnlyProb {
			child, err = CloneGenome(p.genomes[mom], p.idGen.NextID())
		} else {
			dad := pool[p.rng.Intn(len(pool))]
			child, err = CrossoverGenomes(p.genomes[mom], p.genomes[dad], fitness[mom], fitness[dad], p.idGen.NextID(), p.rng)
			mutate = p.rng.Float64() >= p.opts.MateOnlyProb
		}
		if err != nil {
			return nil, err
		}

		if mutate {
			if _, err := MutateBrainGenome(child, p.opts, p.idGen, p.rng); err != nil {
				return nil, err
			}
		}
		children = append(children, child)
	}
	return children, nil
}
