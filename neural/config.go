// Package neural provides the policy contract and a NEAT driver evolving goNEAT brain genomes.
package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/flappy/config"
)

// BrainInputs is the number of sensor nodes: the observation plus a bias node.
const BrainInputs = NumObservations + 1

// BrainOutputs is the number of outputs from the brain network.
const BrainOutputs = 1

// NewOptions converts the YAML NEAT section into goNEAT options.
func NewOptions(cfg config.NEATConfig, popSize int) *neat.Options {
	return &neat.Options{
		WeightMutPower: cfg.WeightMutPower,

		// Structural mutation rates
		MutateAddNodeProb:      cfg.MutateAddNodeProb,
		MutateAddLinkProb:      cfg.MutateAddLinkProb,
		MutateToggleEnableProb: cfg.MutateToggleEnableProb,

		// Weight mutation probability
		MutateLinkWeightsProb: cfg.MutateLinkWeightsProb,
		MutateOnlyProb:        cfg.MutateOnlyProb,

		// Mating
		MateOnlyProb: cfg.MateOnlyProb,

		// Speciation
		CompatThreshold: cfg.CompatThreshold,
		DisjointCoeff:   cfg.DisjointCoeff,
		ExcessCoeff:     cfg.ExcessCoeff,
		MutdiffCoeff:    cfg.MutdiffCoeff,

		// Species management
		DropOffAge:     cfg.DropOffAge,
		SurvivalThresh: cfg.SurvivalThresh,

		PopSize: popSize,
	}
}
