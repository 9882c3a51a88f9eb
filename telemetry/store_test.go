package telemetry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/flappy/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecordsRun(t *testing.T) {
	s := openTestStore(t)
	cfg := config.Default()

	id, err := s.StartRun(42, cfg)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" || s.RunID() != id {
		t.Fatalf("run id = %q, RunID() = %q", id, s.RunID())
	}

	for gen := 0; gen < 3; gen++ {
		stats := NewGenerationStats(gen, 100*(gen+1), gen, []float64{1, 2, float64(3 + gen)}, 5*time.Millisecond)
		stats.Species = 2
		if err := s.RecordGeneration(stats); err != nil {
			t.Fatalf("RecordGeneration(%d): %v", gen, err)
		}
	}
	if err := s.FinishRun(3, 5); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := s.Run(id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Seed != 42 || run.Population != cfg.Evolution.Population {
		t.Errorf("unexpected run %+v", run)
	}
	if run.Generations != 3 || run.BestFitness != 5 || !run.Finished {
		t.Errorf("run not finished correctly: %+v", run)
	}

	gens, err := s.Generations(id)
	if err != nil {
		t.Fatalf("Generations: %v", err)
	}
	if len(gens) != 3 {
		t.Fatalf("got %d generations, want 3", len(gens))
	}
	for i, g := range gens {
		if g.Generation != i || g.Ticks != 100*(i+1) || g.Species != 2 {
			t.Errorf("generation %d = %+v", i, g)
		}
		if g.BestFitness != float64(3+i) {
			t.Errorf("generation %d best = %v, want %v", i, g.BestFitness, 3+i)
		}
	}
}

func TestStoreRequiresRun(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordGeneration(GenerationStats{}); !errors.Is(err, errNoRun) {
		t.Errorf("RecordGeneration before StartRun: err = %v, want errNoRun", err)
	}
	if err := s.FinishRun(0, 0); !errors.Is(err, errNoRun) {
		t.Errorf("FinishRun before StartRun: err = %v, want errNoRun", err)
	}
}

func TestStoreDuplicateGeneration(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.StartRun(1, config.Default()); err != nil {
		t.Fatal(err)
	}
	stats := GenerationStats{Generation: 0}
	if err := s.RecordGeneration(stats); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordGeneration(stats); err == nil {
		t.Error("recording the same generation twice should fail")
	}
}
