// Package engine runs the exchange simulation: exchange rounds within a
// day, the day cycle, and the end-of-day strategy update.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/stats"
)

// Engine drives a Simulation day by day.
type Engine struct {
	Sim  *Simulation
	Days int // Last day to run

	// OnDay runs after every completed day, before the next begins.
	OnDay func(summary stats.DaySummary)

	running atomic.Bool
	stopped atomic.Bool
}

// NewEngine creates an engine that runs sim up to the configured day count.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:  sim,
		Days: sim.Config.Days,
	}
}

// Run advances the simulation until the last day or until Stop is called.
// Stop takes effect between days; a day in progress always completes. A
// Stop that arrives before Run starts means no day runs.
func (e *Engine) Run() error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "day", e.Sim.Day, "days", e.Days)

	var total stats.ExchangeTally
	for !e.stopped.Load() && e.Sim.Day < e.Days {
		summary, err := e.Sim.RunDay()
		if err != nil {
			return fmt.Errorf("run day %d: %w", e.Sim.Day+1, err)
		}
		total.Add(summary.Tally)

		if e.OnDay != nil {
			e.OnDay(summary)
		}
	}

	slog.Info("simulation engine stopped",
		"day", e.Sim.Day,
		"rounds", humanize.Comma(int64(total.Rounds)),
		"settled", humanize.Comma(int64(total.Settled)),
	)
	return nil
}

// Stop halts the loop after the current day. Safe to call from a signal
// handler goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Running reports whether Run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// LogDay writes the daily report for summary.
func LogDay(summary stats.DaySummary) {
	selfish := summary.ByStrategy[agents.StrategySelfish]
	social := summary.ByStrategy[agents.StrategySocial]

	slog.Info("daily report",
		"day", summary.Day,
		"rounds", summary.Tally.Rounds,
		"settled", humanize.Comma(int64(summary.Tally.Settled)),
		"favours", summary.Tally.Favours,
		"satisfaction", fmt.Sprintf("%.3f", summary.Overall),
		"random", fmt.Sprintf("%.3f", summary.RandomBaseline),
		"optimum", fmt.Sprintf("%.3f", summary.OptimumBaseline),
		"selfish", selfish.Count,
		"selfish_mean", fmt.Sprintf("%.3f", selfish.Mean),
		"social", social.Count,
		"social_mean", fmt.Sprintf("%.3f", social.Mean),
	)
}
