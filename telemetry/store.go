package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/flappy/config"
)

var errNoRun = errors.New("no run started")

// RunSummary describes one recorded run.
type RunSummary struct {
	ID          string
	Seed        int64
	Population  int
	Generations int
	BestFitness float64
	StartedAt   time.Time
	Finished    bool
}

// Store persists run history to a SQLite database so runs can be compared.
type Store struct {
	db    *sql.DB
	runID string
}

// OpenStore opens (or creates) the run history database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			population INTEGER NOT NULL,
			config_yaml TEXT NOT NULL,
			generations INTEGER NOT NULL DEFAULT 0,
			best_fitness REAL NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			score INTEGER NOT NULL,
			population INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			std_fitness REAL NOT NULL,
			p10_fitness REAL NOT NULL,
			p50_fitness REAL NOT NULL,
			p90_fitness REAL NOT NULL,
			species INTEGER NOT NULL,
			policy_errors INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// StartRun registers a new run and makes it the target of RecordGeneration.
// Returns the run ID.
func (s *Store) StartRun(seed int64, cfg *config.Config) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO runs (id, seed, population, config_yaml, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, seed, cfg.Evolution.Population, string(cfgYAML), time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	s.runID = id
	return id, nil
}

// RunID returns the current run ID, or "" before StartRun.
func (s *Store) RunID() string {
	return s.runID
}

// RecordGeneration stores one generation of the current run.
func (s *Store) RecordGeneration(stats GenerationStats) error {
	if s.runID == "" {
		return errNoRun
	}

	_, err := s.db.Exec(
		`INSERT INTO generations (
			run_id, generation, ticks, score, population,
			best_fitness, mean_fitness, std_fitness, p10_fitness, p50_fitness, p90_fitness,
			species, policy_errors, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, stats.Generation, stats.Ticks, stats.Score, stats.Population,
		stats.BestFitness, stats.MeanFitness, stats.StdFitness, stats.P10Fitness, stats.P50Fitness, stats.P90Fitness,
		stats.Species, stats.PolicyErrors, stats.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting generation %d: %w", stats.Generation, err)
	}
	return nil
}

// FinishRun marks the current run complete.
func (s *Store) FinishRun(generations int, bestFitness float64) error {
	if s.runID == "" {
		return errNoRun
	}

	_, err := s.db.Exec(
		`UPDATE runs SET generations = ?, best_fitness = ?, finished_at = ? WHERE id = ?`,
		generations, bestFitness, time.Now().UnixMilli(), s.runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Run returns the summary of a recorded run.
func (s *Store) Run(id string) (RunSummary, error) {
	var (
		r        RunSummary
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRow(
		`SELECT id, seed, population, generations, best_fitness, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Seed, &r.Population, &r.Generations, &r.BestFitness, &started, &finished)
	if err != nil {
		return RunSummary{}, fmt.Errorf("loading run %s: %w", id, err)
	}
	r.StartedAt = time.UnixMilli(started)
	r.Finished = finished.Valid
	return r, nil
}

// Generations returns the recorded generations of a run in order.
func (s *Store) Generations(runID string) ([]GenerationStats, error) {
	rows, err := s.db.Query(
		`SELECT generation, ticks, score, population,
			best_fitness, mean_fitness, std_fitness, p10_fitness, p50_fitness, p90_fitness,
			species, policy_errors, duration_ms
		FROM generations WHERE run_id = ? ORDER BY generation`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationStats
	for rows.Next() {
		var g GenerationStats
		if err := rows.Scan(
			&g.Generation, &g.Ticks, &g.Score, &g.Population,
			&g.BestFitness, &g.MeanFitness, &g.StdFitness, &g.P10Fitness, &g.P50Fitness, &g.P90Fitness,
			&g.Species, &g.PolicyErrors, &g.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
