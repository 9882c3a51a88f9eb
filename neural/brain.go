package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Node IDs of the fixed brain topology. Hidden nodes are allocated above outputNodeID.
const (
	biasNodeID   = NumObservations + 1
	outputNodeID = BrainInputs + 1
)

// BrainController wraps a goNEAT network so it can be used as a Policy.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome) (*BrainController, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}

	return &BrainController{
		Genome:  genome,
		network: phenotype,
	}, nil
}

// Evaluate runs the network on an observation and returns the single output.
// State is flushed afterwards so every call is independent.
func (b *BrainController) Evaluate(obs Observation) (float64, error) {
	if err := b.network.LoadSensors(obs.ToInputs()); err != nil {
		return 0, fmt.Errorf("failed to load sensors: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5
	}

	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return 0, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	if _, err := b.network.Flush(); err != nil {
		return 0, fmt.Errorf("flush failed: %w", err)
	}

	if len(outputs) != BrainOutputs {
		return 0, fmt.Errorf("expected %d outputs, got %d", BrainOutputs, len(outputs))
	}
	return outputs[0], nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// brainNodes returns fresh sensor, bias and output nodes.
func brainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, BrainInputs+BrainOutputs)

	for i := 1; i <= NumObservations; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	bias := network.NewNNode(biasNodeID, network.BiasNeuron)
	bias.ActivationType = neatmath.LinearActivation
	nodes = append(nodes, bias)

	out := network.NewNNode(outputNodeID, network.OutputNeuron)
	out.ActivationType = neatmath.SigmoidSteepenedActivation
	nodes = append(nodes, out)

	return nodes
}

// CreateBrainGenome creates a brain genome connecting each sensor (and the bias)
// to the output with probability connectionProb. Initial innovation numbers are
// shared across genomes so matching links line up during crossover.
func CreateBrainGenome(id int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := brainNodes()
	output := nodes[BrainInputs]

	genes := make([]*genetics.Gene, 0, BrainInputs)
	for i := 0; i < BrainInputs; i++ {
		innov := int64(i + 1)
		if rng.Float64() >= connectionProb {
			continue
		}
		genes = append(genes, genetics.NewGeneWithTrait(
			nil,
			rng.Float64()*4-2, // [-2, 2]
			nodes[i],
			output,
			false,
			innov,
			0,
		))
	}

	// The output always needs at least one input
	if len(genes) == 0 {
		i := rng.Intn(BrainInputs)
		genes = append(genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*2-1,
			nodes[i], output,
			false, int64(i+1), 0,
		))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateBrainGenomeWithWeights creates a fully connected brain genome with fixed
// weights, ordered as the observation followed by the bias.
func CreateBrainGenomeWithWeights(id int, weights [BrainInputs]float64) *genetics.Genome {
	nodes := brainNodes()
	output := nodes[BrainInputs]

	genes := make([]*genetics.Gene, 0, BrainInputs)
	for i, w := range weights {
		genes = append(genes, genetics.NewGeneWithTrait(nil, w, nodes[i], output, false, int64(i+1), 0))
	}
	return genetics.NewGenome(id, nil, nodes, genes)
}
