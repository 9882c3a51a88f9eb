package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for a generation tick.
const (
	PhasePolicy     = "policy"     // advance, survival reward, observe, decide
	PhasePipes      = "pipes"      // obstacle stream tick
	PhaseCollisions = "collisions" // collision and boundary removal
	PhaseScoring    = "scoring"    // passage bonus and spawn
	PhaseGround     = "ground"     // base scroll and boundary re-check
)

// phaseOrder lists the phases in tick order for logging.
var phaseOrder = []string{PhasePolicy, PhasePipes, PhaseCollisions, PhaseScoring, PhaseGround}

// PerfCollector times the ticks of one generation at a time. BeginGeneration
// discards the previous generation's timings.
type PerfCollector struct {
	generation int
	ticks      []float64 // tick durations in microseconds
	phases     map[string]time.Duration

	tickStart  time.Time
	phaseStart time.Time
	phase      string
}

// NewPerfCollector creates a collector for generation 0.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{phases: make(map[string]time.Duration)}
}

// BeginGeneration starts a fresh timing window for generation gen.
func (p *PerfCollector) BeginGeneration(gen int) {
	p.generation = gen
	p.ticks = p.ticks[:0]
	clear(p.phases)
	p.phase = ""
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.phase = ""
}

// StartPhase closes the running phase, if any, and opens the next one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

// EndTick closes the last phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""
	p.ticks = append(p.ticks, float64(now.Sub(p.tickStart))/float64(time.Microsecond))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// PerfStats summarises the tick timings of one generation.
type PerfStats struct {
	Generation int
	Ticks      int

	AvgTick time.Duration
	P50Tick time.Duration
	P95Tick time.Duration
	MaxTick time.Duration

	// Share of total tick time per phase, in percent
	PhasePct map[string]float64

	TicksPerSecond float64
}

// Stats summarises the current generation.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Generation: p.generation,
		Ticks:      len(p.ticks),
		PhasePct:   make(map[string]float64, len(p.phases)),
	}
	if len(p.ticks) == 0 {
		return s
	}

	sorted := slices.Clone(p.ticks)
	slices.Sort(sorted)

	mean := stat.Mean(sorted, nil)
	s.AvgTick = micros(mean)
	s.P50Tick = micros(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	s.P95Tick = micros(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	s.MaxTick = micros(sorted[len(sorted)-1])
	if mean > 0 {
		s.TicksPerSecond = 1e6 / mean
	}

	total := mean * float64(len(sorted))
	for phase, d := range p.phases {
		if total > 0 {
			s.PhasePct[phase] = float64(d) / float64(time.Microsecond) / total * 100
		}
	}
	return s
}

func micros(us float64) time.Duration {
	return time.Duration(us * float64(time.Microsecond))
}

// LogStats logs the generation's timings.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Generation    int     `csv:"generation"`
	Ticks         int     `csv:"ticks"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	P50TickUS     int64   `csv:"p50_tick_us"`
	P95TickUS     int64   `csv:"p95_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	PolicyPct     float64 `csv:"policy_pct"`
	PipesPct      float64 `csv:"pipes_pct"`
	CollisionsPct float64 `csv:"collisions_pct"`
	ScoringPct    float64 `csv:"scoring_pct"`
	GroundPct     float64 `csv:"ground_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Generation:    s.Generation,
		Ticks:         s.Ticks,
		AvgTickUS:     s.AvgTick.Microseconds(),
		P50TickUS:     s.P50Tick.Microseconds(),
		P95TickUS:     s.P95Tick.Microseconds(),
		MaxTickUS:     s.MaxTick.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		PolicyPct:     s.PhasePct[PhasePolicy],
		PipesPct:      s.PhasePct[PhasePipes],
		CollisionsPct: s.PhasePct[PhaseCollisions],
		ScoringPct:    s.PhasePct[PhaseScoring],
		GroundPct:     s.PhasePct[PhaseGround],
	}
}
