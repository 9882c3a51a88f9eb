package neural

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9  // Probability of perturbing vs replacing weights
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Maximum attempts to find a new connection
	initialInnovNum     = 1000 // Starting innovation number to avoid conflicts
	disableInheritProb  = 0.75 // Chance a link disabled in either parent stays disabled
)

var errNilGenome = errors.New("nil genome")

// GenomeIDGenerator generates unique genome IDs and innovation numbers for one run.
type GenomeIDGenerator struct {
	nextID       int
	nextInnovNum int64
}

// NewGenomeIDGenerator creates a new ID generator.
func NewGenomeIDGenerator() *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       1,
		nextInnovNum: initialInnovNum,
	}
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number and the fitter parent contributes
// its disjoint and excess genes.
func CrossoverGenomes(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, errNilGenome
	}

	primary, secondary := parent1, parent2
	if fitness2 > fitness1 {
		primary, secondary = parent2, parent1
	}

	primaryGenes := make(map[int64]*genetics.Gene, len(primary.Genes))
	for _, gene := range primary.Genes {
		primaryGenes[gene.InnovationNum] = gene
	}
	secondaryGenes := make(map[int64]*genetics.Gene, len(secondary.Genes))
	for _, gene := range secondary.Genes {
		secondaryGenes[gene.InnovationNum] = gene
	}

	// Sorted innovations keep the rng draw order stable
	innovations := make([]int64, 0, len(primaryGenes)+len(secondaryGenes))
	for innov := range primaryGenes {
		innovations = append(innovations, innov)
	}
	for innov := range secondaryGenes {
		if _, ok := primaryGenes[innov]; !ok {
			innovations = append(innovations, innov)
		}
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNodeMap[node.Id] = copyNode(node)
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNodeMap[node.Id] = copyNode(node)
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))
	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selected *genetics.Gene
		enabled := true

		switch {
		case pGene != nil && sGene != nil:
			selected = pGene
			if rng.Float64() < 0.5 {
				selected = sGene
			}
			enabled = selected.IsEnabled
			if (!pGene.IsEnabled || !sGene.IsEnabled) && rng.Float64() < disableInheritProb {
				enabled = false
			}
		case pGene != nil:
			selected = pGene
			enabled = pGene.IsEnabled
		case fitness1 == fitness2 && rng.Float64() < 0.5:
			if reaches(childGenes, sGene.Link.OutNode.Id, sGene.Link.InNode.Id) {
				continue
			}
			selected = sGene
			enabled = sGene.IsEnabled
		}

		if selected == nil {
			continue
		}

		inNode := childNodeMap[selected.Link.InNode.Id]
		outNode := childNodeMap[selected.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		childGene := genetics.NewGeneWithTrait(
			nil,
			selected.Link.ConnectionWeight,
			inNode,
			outNode,
			selected.Link.IsRecurrent,
			selected.InnovationNum,
			selected.MutationNum,
		)
		childGene.IsEnabled = enabled
		childGenes = append(childGenes, childGene)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	child := genetics.NewGenome(childID, nil, childNodes, childGenes)
	ensureOutputConnected(child)
	return child, nil
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

func mutateWeights(genome *genetics.Genome, power float64, rng *rand.Rand) {
	for _, gene := range genome.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float64) float64 {
	if w > maxConnectionWeight {
		return maxConnectionWeight
	}
	if w < -maxConnectionWeight {
		return -maxConnectionWeight
	}
	return w
}

// hiddenActivators lists the activations a new hidden node may receive.
var hiddenActivators = []neatmath.NodeActivationType{
	neatmath.SigmoidSteepenedActivation,
	neatmath.TanhActivation,
	neatmath.LinearActivation,
}

// addNode splits an enabled link with a new hidden node.
func addNode(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		if gene.IsEnabled {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	geneToSplit := enabledGenes[rng.Intn(len(enabledGenes))]
	geneToSplit.IsEnabled = false

	maxNodeID := 0
	for _, node := range genome.Nodes {
		if node.Id > maxNodeID {
			maxNodeID = node.Id
		}
	}

	newNode := network.NewNNode(maxNodeID+1, network.HiddenNeuron)
	newNode.ActivationType = hiddenActivators[rng.Intn(len(hiddenActivators))]

	// old_in -> new_node carries 1.0, new_node -> old_out keeps the old weight
	gene1 := genetics.NewGeneWithTrait(nil, 1.0, geneToSplit.Link.InNode, newNode, false, idGen.NextInnovation(), 0)
	gene2 := genetics.NewGeneWithTrait(nil, geneToSplit.Link.ConnectionWeight, newNode, geneToSplit.Link.OutNode, false, idGen.NextInnovation(), 0)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, gene1, gene2)
	return true
}

// addLink connects two unconnected nodes, never into a sensor and never closing a cycle.
func addLink(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	var sources, targets []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			sources = append(sources, node)
		case network.OutputNeuron:
			targets = append(targets, node)
		case network.HiddenNeuron:
			sources = append(sources, node)
			targets = append(targets, node)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool, len(genome.Genes))
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.Intn(len(sources))]
		target := targets[rng.Intn(len(targets))]

		if source.Id == target.Id || existing[connectionKey(source.Id, target.Id)] {
			continue
		}
		if reaches(genome.Genes, target.Id, source.Id) {
			continue
		}

		genome.Genes = append(genome.Genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*4-2,
			source, target,
			false, idGen.NextInnovation(), 0,
		))
		return true
	}
	return false
}

// reaches reports whether node to is downstream of node from along any link.
func reaches(genes []*genetics.Gene, from, to int) bool {
	next := make(map[int][]int)
	for _, gene := range genes {
		in, out := gene.Link.InNode.Id, gene.Link.OutNode.Id
		next[in] = append(next[in], out)
	}

	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

func toggleEnable(genome *genetics.Genome, rng *rand.Rand) {
	if len(genome.Genes) == 0 {
		return
	}
	gene := genome.Genes[rng.Intn(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled
	ensureOutputConnected(genome)
}

// ensureOutputConnected re-enables a link into the output if every one is disabled.
func ensureOutputConnected(genome *genetics.Genome) {
	var first *genetics.Gene
	for _, g := range genome.Genes {
		if g.Link.OutNode.Id != outputNodeID {
			continue
		}
		if g.IsEnabled {
			return
		}
		if first == nil {
			first = g
		}
	}
	if first != nil {
		first.IsEnabled = true
	}
}

// MutateBrainGenome applies weight and structural mutations at the configured rates.
func MutateBrainGenome(genome *genetics.Genome, opts *neat.Options, idGen *GenomeIDGenerator, rng *rand.Rand) (bool, error) {
	if genome == nil {
		return false, errNilGenome
	}

	mutated := false

	if rng.Float64() < opts.MutateLinkWeightsProb {
		mutateWeights(genome, opts.WeightMutPower, rng)
		mutated = true
	}

	if rng.Float64() < opts.MutateAddNodeProb {
		if addNode(genome, idGen, rng) {
			mutated = true
		}
	}

	if rng.Float64() < opts.MutateAddLinkProb {
		if addLink(genome, idGen, rng) {
			mutated = true
		}
	}

	if rng.Float64() < opts.MutateToggleEnableProb {
		toggleEnable(genome, rng)
		mutated = true
	}

	return mutated, nil
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, errNilGenome
	}

	nodeMap := make(map[int]*network.NNode, len(genome.Nodes))
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := make(map[int64]*genetics.Gene, len(g1.Genes))
	maxInnov1 := int64(0)
	for _, gene := range g1.Genes {
		genes1[gene.InnovationNum] = gene
		maxInnov1 = max(maxInnov1, gene.InnovationNum)
	}

	genes2 := make(map[int64]*genetics.Gene, len(g2.Genes))
	maxInnov2 := int64(0)
	for _, gene := range g2.Genes {
		genes2[gene.InnovationNum] = gene
		maxInnov2 = max(maxInnov2, gene.InnovationNum)
	}

	matching, disjoint, excess := 0, 0, 0
	weightDiff := 0.0

	// Walk the gene slices so the weight sum is order-stable
	for _, gene1 := range g1.Genes {
		innov := gene1.InnovationNum
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for _, gene2 := range g2.Genes {
		innov := gene2.InnovationNum
		if _, exists := genes1[innov]; exists {
			continue
		}
		if innov > maxInnov1 {
			excess++
		} else {
			disjoint++
		}
	}

	// Small genomes are not normalised
	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}
