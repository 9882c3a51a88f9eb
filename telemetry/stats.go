// Package telemetry records per-generation statistics, timings and run history.
package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one concluded generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Ticks      int `csv:"ticks"`
	Score      int `csv:"score"`
	Population int `csv:"population"`

	// Fitness distribution across every bird of the generation
	BestFitness float64 `csv:"best_fitness"`
	MeanFitness float64 `csv:"mean_fitness"`
	StdFitness  float64 `csv:"std_fitness"`
	P10Fitness  float64 `csv:"p10_fitness"`
	P50Fitness  float64 `csv:"p50_fitness"`
	P90Fitness  float64 `csv:"p90_fitness"`

	Species      int   `csv:"species"`
	PolicyErrors int   `csv:"policy_errors"`
	DurationMS   int64 `csv:"duration_ms"`
}

// NewGenerationStats summarises a generation's fitness values.
func NewGenerationStats(generation, ticks, score int, fitness []float64, elapsed time.Duration) GenerationStats {
	s := GenerationStats{
		Generation: generation,
		Ticks:      ticks,
		Score:      score,
		Population: len(fitness),
		DurationMS: elapsed.Milliseconds(),
	}
	if len(fitness) == 0 {
		return s
	}

	sorted := slices.Clone(fitness)
	slices.Sort(sorted)

	s.BestFitness = floats.Max(sorted)
	s.MeanFitness, s.StdFitness = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdFitness = 0
	}
	s.P10Fitness = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50Fitness = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90Fitness = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int("score", s.Score),
		slog.Int("population", s.Population),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("mean_fitness", s.MeanFitness),
		slog.Float64("std_fitness", s.StdFitness),
		slog.Float64("p10_fitness", s.P10Fitness),
		slog.Float64("p50_fitness", s.P50Fitness),
		slog.Float64("p90_fitness", s.P90Fitness),
		slog.Int("species", s.Species),
		slog.Int("policy_errors", s.PolicyErrors),
		slog.Int64("duration_ms", s.DurationMS),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"ticks", s.Ticks,
		"score", s.Score,
		"best", s.BestFitness,
		"mean", s.MeanFitness,
		"p90", s.P90Fitness,
		"species", s.Species,
	)
}
