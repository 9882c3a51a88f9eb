package main

import (
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

// rankedDriver is the NEAT population driver that offers each generation's
// champion to the hall of fame before breeding replaces it.
type rankedDriver struct {
	*neural.Population
	hof *telemetry.HallOfFame
}

// Report records the generation champion, then breeds the next generation.
func (d *rankedDriver) Report(fitness []float64) error {
	genomes := d.Genomes()
	if best := bestIndex(fitness); best >= 0 && best < len(genomes) {
		g := genomes[best]
		d.hof.Consider(telemetry.HallEntry{
			Generation: d.Generation(),
			GenomeID:   g.Id,
			Fitness:    fitness[best],
			Nodes:      len(g.Nodes),
			Links:      enabledLinks(g),
		})
	}
	return d.Population.Report(fitness)
}

// bestIndex returns the index of the highest fitness, the first on ties, or -1.
func bestIndex(fitness []float64) int {
	best := -1
	for i, f := range fitness {
		if best < 0 || f > fitness[best] {
			best = i
		}
	}
	return best
}

func enabledLinks(g *genetics.Genome) int {
	n := 0
	for _, gene := range g.Genes {
		if gene.IsEnabled {
			n++
		}
	}
	return n
}
