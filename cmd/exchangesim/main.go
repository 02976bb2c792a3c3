// Command exchangesim runs the time-slot exchange simulation: a population
// of selfish and social agents trading daily slot allocations, with
// strategies spreading by social learning.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/spf13/pflag"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/curves"
	"github.com/talgya/slot-exchange/internal/engine"
	"github.com/talgya/slot-exchange/internal/persistence"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		seed       int64
		days       int
		dbPath     string
		logLevel   string
		profileDir string
	)

	flagSet := pflag.NewFlagSet("exchangesim", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML run configuration (defaults apply when empty)")
	flagSet.Int64Var(&seed, "seed", 0, "override the configured random seed")
	flagSet.IntVar(&days, "days", 0, "override the configured number of days")
	flagSet.StringVar(&dbPath, "db", "", "override the SQLite database path (\"none\" disables storage)")
	flagSet.StringVar(&logLevel, "log-level", "", "override the log level: debug, info, warn, error")
	flagSet.StringVar(&profileDir, "cpuprofile", "", "write a CPU profile into this directory")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flagSet.Changed("seed") {
		cfg.Seed = seed
	}
	if flagSet.Changed("days") {
		cfg.Days = days
	}
	if flagSet.Changed("db") {
		cfg.Database = dbPath
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(profileDir), profile.NoShutdownHook).Stop()
	}

	// ── Curves ────────────────────────────────────────────────────────
	curves.Fill(cfg)
	slog.Info("time-slot exchange simulation",
		"seed", cfg.Seed,
		"population", cfg.Population,
		"slots_per_agent", cfg.SlotsPerAgent,
		"time_slots", cfg.UniqueTimeSlots,
		"cohorts", len(cfg.Cohorts),
		"days", cfg.Days,
		"policy", cfg.LearningPolicy,
		"termination", cfg.Termination.Mode,
		"social_capital", cfg.SocialCapital,
	)

	// ── Simulation & database ─────────────────────────────────────────
	sim, db, recorder, err := newRun(*cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	counts := agents.CountByStrategy(sim.Agents)
	slog.Info("population ready",
		"selfish", counts[agents.StrategySelfish],
		"social", counts[agents.StrategySocial],
	)

	eng := engine.NewEngine(sim)
	eng.OnDay = engine.LogDay

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, stopping after current day", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nRunning %s days for %d agents... (Ctrl+C to stop)\n",
		humanize.Comma(int64(cfg.Days)), cfg.Population)

	if err := eng.Run(); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Finish(); err != nil {
			slog.Error("failed to mark run finished", "error", err)
		}
		fmt.Printf("Run %s stored in %s\n", recorder.RunID, cfg.Database)
	}

	counts = agents.CountByStrategy(sim.Agents)
	fmt.Printf("Simulation stopped after day %d: %d selfish, %d social.\n",
		sim.Day, counts[agents.StrategySelfish], counts[agents.StrategySocial])
	return nil
}

// newRun builds the simulation and only then registers it in the database,
// so an invalid configuration leaves no run behind. db and recorder are nil
// when storage is disabled.
func newRun(cfg config.Config) (*engine.Simulation, *persistence.DB, *persistence.RunRecorder, error) {
	sim, err := engine.NewSimulation(cfg, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database == "" || cfg.Database == "none" {
		return sim, nil, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Info("database opened", "path", cfg.Database)

	recorder, err := db.BeginRun(cfg)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	sim.Recorder = recorder
	return sim, db, recorder, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
