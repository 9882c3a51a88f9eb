package telemetry

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var errNoHistory = errors.New("no generations to plot")

// SaveFitnessPlot draws best, mean and median fitness per generation and
// saves the chart to path. The image format follows the file extension.
func SaveFitnessPlot(history []GenerationStats, path string) error {
	if len(history) == 0 {
		return errNoHistory
	}

	p := plot.New()
	p.Title.Text = "Fitness by generation"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	best := make(plotter.XYs, len(history))
	mean := make(plotter.XYs, len(history))
	median := make(plotter.XYs, len(history))
	for i, s := range history {
		x := float64(s.Generation)
		best[i] = plotter.XY{X: x, Y: s.BestFitness}
		mean[i] = plotter.XY{X: x, Y: s.MeanFitness}
		median[i] = plotter.XY{X: x, Y: s.P50Fitness}
	}

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("best line: %w", err)
	}
	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return fmt.Errorf("mean line: %w", err)
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	medianLine, err := plotter.NewLine(median)
	if err != nil {
		return fmt.Errorf("median line: %w", err)
	}
	medianLine.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine, medianLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Add("median", medianLine)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
