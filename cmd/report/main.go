// Command report prints the stored results of exchange simulation runs.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/persistence"
	"github.com/talgya/slot-exchange/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath string
		runID  string
		list   bool
		every  int
		day    int
	)

	flagSet := pflag.NewFlagSet("report", pflag.ContinueOnError)
	flagSet.StringVar(&dbPath, "db", "data/exchange.db", "SQLite database written by exchangesim")
	flagSet.StringVar(&runID, "run", "", "run ID (default: the latest run)")
	flagSet.BoolVar(&list, "list", false, "list stored runs and exit")
	flagSet.IntVar(&every, "every", 1, "print every Nth day")
	flagSet.IntVar(&day, "rounds", 0, "print the per-round summaries recorded for this day")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if every < 1 {
		every = 1
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if list {
		return listRuns(db)
	}

	var r persistence.Run
	if runID == "" {
		r, err = db.LatestRun()
	} else {
		r, err = db.GetRun(runID)
	}
	if err != nil {
		return err
	}

	status := "incomplete"
	if r.Finished() {
		status = "finished " + r.FinishedAt.String
	}
	fmt.Printf("Run %s  seed=%d  policy=%s  population=%d  days=%d  (%s)\n\n",
		r.ID, r.Seed, r.Policy, r.Population, r.DaysCompleted, status)

	if day > 0 {
		return printRounds(db, r.ID, day)
	}
	return printDays(db, r.ID, every)
}

func listRuns(db *persistence.DB) error {
	runs, err := db.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  seed=%-6d %-22s days=%s\n",
			r.ID, r.StartedAt, r.Seed, r.Policy, humanize.Comma(int64(r.DaysCompleted)))
	}
	return nil
}

func printDays(db *persistence.DB, runID string, every int) error {
	days, err := db.DaySummaries(runID)
	if err != nil {
		return err
	}

	fmt.Printf("%6s %8s %8s %8s %9s %9s %8s %8s %10s\n",
		"day", "overall", "random", "optimum", "selfish", "social", "sf_mean", "so_mean", "settled")
	var total stats.ExchangeTally
	for i, d := range days {
		total.Add(d.Tally)
		if i%every != 0 && i != len(days)-1 {
			continue
		}
		selfish := d.ByStrategy[agents.StrategySelfish]
		social := d.ByStrategy[agents.StrategySocial]
		fmt.Printf("%6d %8.3f %8.3f %8.3f %9d %9d %8.3f %8.3f %10s\n",
			d.Day, d.Overall, d.RandomBaseline, d.OptimumBaseline,
			selfish.Count, social.Count, selfish.Mean, social.Mean,
			humanize.Comma(int64(d.Tally.Settled)))
	}

	fmt.Printf("\n%s rounds, %s proposals, %s accepted (%s by favour), %s settled, %s dropped\n",
		humanize.Comma(int64(total.Rounds)),
		humanize.Comma(int64(total.Proposals)),
		humanize.Comma(int64(total.Accepted)),
		humanize.Comma(int64(total.Favours)),
		humanize.Comma(int64(total.Settled)),
		humanize.Comma(int64(total.Dropped)))
	return nil
}

func printRounds(db *persistence.DB, runID string, day int) error {
	rounds, err := db.RoundSummaries(runID, day)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		return fmt.Errorf("no rounds recorded for day %d", day)
	}

	fmt.Printf("%6s %8s %8s %8s %8s\n", "round", "overall", "sf_mean", "so_mean", "settled")
	for _, r := range rounds {
		fmt.Printf("%6d %8.3f %8.3f %8.3f %8d\n",
			r.Round, r.Overall, r.Mean[agents.StrategySelfish], r.Mean[agents.StrategySocial], r.Tally.Settled)
	}
	return nil
}
