package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/renderer"
	"github.com/pthm-cable/flappy/telemetry"
	"github.com/pthm-cable/flappy/termview"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "window", "Presentation: window, term or headless")
	logStats := flag.Bool("log-stats", false, "Output generation stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and charts")
	dbPath := flag.String("db", "", "SQLite run history database (empty = disabled)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", -1, "Stop after N generations (-1 = use config, 0 = unlimited)")
	maxTicks := flag.Int("max-ticks", -1, "Per-generation tick budget (-1 = use config, 0 = unlimited)")
	workers := flag.Int("workers", -1, "Step workers (-1 = use config, 0 = GOMAXPROCS, 1 = serial)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *generations >= 0 {
		cfg.Evolution.MaxGenerations = *generations
	}
	if *maxTicks >= 0 {
		cfg.Evolution.MaxTicks = *maxTicks
	}
	if *workers >= 0 {
		cfg.Evolution.Workers = *workers
		cfg.Derived.Workers = *workers
		if *workers == 0 {
			cfg.Derived.Workers = runtime.GOMAXPROCS(0)
		}
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON for structured logging). The terminal backend owns
	// stdout, so its logs go to the output directory or nowhere.
	var logOut io.Writer = os.Stdout
	if *mode == "term" {
		logOut = io.Discard
		if *outputDir != "" {
			if err := os.MkdirAll(*outputDir, 0755); err == nil {
				if f, err := os.Create(filepath.Join(*outputDir, "run.log")); err == nil {
					defer f.Close()
					logOut = f
				}
			}
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	if err := run(cfg, *mode, rngSeed, *outputDir, *dbPath, *logStats); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, mode string, seed int64, outputDir, dbPath string, logStats bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pop := neural.NewPopulation(cfg, rand.New(rand.NewSource(seed)))
	hof := telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize)
	driver := &rankedDriver{Population: pop, hof: hof}

	var presenter game.Presenter
	perf := telemetry.NewPerfCollector()
	switch mode {
	case "window":
		w := renderer.Open(cfg, "Flappy NEAT", pop)
		defer w.Close()
		presenter = w
	case "term":
		v, err := termview.Open(cfg, pop)
		if err != nil {
			return err
		}
		defer v.Close()
		presenter = v
	case "headless":
		presenter = game.Headless{}
	default:
		slog.Warn("unknown mode, running headless", "mode", mode)
		presenter = game.Headless{}
	}

	// Gap heights come from their own source so breeding does not shift the course
	evo := game.NewEvolution(cfg, driver, presenter, rand.New(rand.NewSource(seed+1)))
	evo.SetLogStats(logStats)

	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
		evo.AddSink(output)
		evo.SetPerf(perf, output)
	} else {
		evo.SetPerf(perf, nil)
	}

	var store *telemetry.Store
	if dbPath != "" {
		store, err = telemetry.OpenStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.StartRun(seed, cfg); err != nil {
			return err
		}
		evo.AddSink(store)
	}

	slog.Info("starting evolution",
		"seed", seed,
		"mode", mode,
		"population", cfg.Evolution.Population,
		"max_generations", cfg.Evolution.MaxGenerations,
		"max_ticks", cfg.Evolution.MaxTicks,
		"workers", cfg.Derived.Workers,
		"run_id", runID(store),
	)

	res, runErr := evo.Run(ctx)

	slog.Info("evolution finished",
		"generations", res.Generations,
		"best_fitness", res.BestFitness,
		"best_generation", res.BestGeneration,
		"hall_of_fame_top", hof.TopFitness(),
	)

	if err := output.WriteHallOfFame(hof); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	if store != nil {
		if err := store.FinishRun(res.Generations, res.BestFitness); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}

	if runErr != nil && ctx.Err() != nil {
		slog.Info("interrupted", "error", runErr)
		return nil
	}
	return runErr
}

func runID(s *telemetry.Store) string {
	if s == nil {
		return ""
	}
	return s.RunID()
}
