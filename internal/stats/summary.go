package stats

import (
	"github.com/talgya/slot-exchange/internal/agents"
)

// ExchangeTally counts what happened in the exchange rounds of a day.
type ExchangeTally struct {
	Rounds    int `json:"rounds"`
	Proposals int `json:"proposals"`
	Accepted  int `json:"accepted"`
	Favours   int `json:"favours"` // Acceptances justified by the favour ledger
	Settled   int `json:"settled"`
	Dropped   int `json:"dropped"` // Accepted but invalidated before settlement
}

// Add accumulates other into t.
func (t *ExchangeTally) Add(other ExchangeTally) {
	t.Rounds += other.Rounds
	t.Proposals += other.Proposals
	t.Accepted += other.Accepted
	t.Favours += other.Favours
	t.Settled += other.Settled
	t.Dropped += other.Dropped
}

// RoundSummary is the per-round record kept for days of interest.
type RoundSummary struct {
	Day     int                         `json:"day"`
	Round   int                         `json:"round"`
	Mean    map[agents.Strategy]float64 `json:"mean"`
	Count   map[agents.Strategy]int     `json:"count"`
	Overall float64                     `json:"overall"`
	Tally   ExchangeTally               `json:"tally"`
}

// NewRoundSummary summarizes the population after a round.
func NewRoundSummary(day, round int, s Snapshot, tally ExchangeTally) RoundSummary {
	rs := RoundSummary{
		Day:     day,
		Round:   round,
		Mean:    make(map[agents.Strategy]float64, len(agents.Strategies)),
		Count:   make(map[agents.Strategy]int, len(agents.Strategies)),
		Overall: MeanSatisfaction(s),
		Tally:   tally,
	}
	for _, strategy := range agents.Strategies {
		xs := s.ValuesFor(strategy)
		rs.Mean[strategy] = Mean(xs)
		rs.Count[strategy] = len(xs)
	}
	return rs
}

// DaySummary is the end-of-day record handed to the recorder. Satisfaction
// figures are taken after the last exchange round and before social
// learning.
type DaySummary struct {
	Day             int                                 `json:"day"`
	Overall         float64                             `json:"overall"`
	ByStrategy      map[agents.Strategy]TypeStats       `json:"by_strategy"`
	RandomBaseline  float64                             `json:"random_baseline"`
	OptimumBaseline float64                             `json:"optimum_baseline"`
	Tally           ExchangeTally                       `json:"tally"`
	Counters        map[agents.Strategy]agents.Counters `json:"counters"`
}

// NewDaySummary builds the day's summary from the end-of-exchange snapshot
// and the population (for per-strategy counter totals).
func NewDaySummary(day int, s Snapshot, population []*agents.Agent, randomBaseline, optimumBaseline float64, tally ExchangeTally) DaySummary {
	counters := make(map[agents.Strategy]agents.Counters, len(agents.Strategies))
	for _, strategy := range agents.Strategies {
		counters[strategy] = agents.Counters{}
	}
	for _, a := range population {
		c := counters[a.Strategy]
		c.Add(a.Counters)
		counters[a.Strategy] = c
	}

	return DaySummary{
		Day:             day,
		Overall:         MeanSatisfaction(s),
		ByStrategy:      Summarize(s),
		RandomBaseline:  randomBaseline,
		OptimumBaseline: optimumBaseline,
		Tally:           tally,
		Counters:        counters,
	}
}

// Population returns the number of agents per strategy.
func (d DaySummary) Population() map[agents.Strategy]int {
	out := make(map[agents.Strategy]int, len(d.ByStrategy))
	for strategy, ts := range d.ByStrategy {
		out[strategy] = ts.Count
	}
	return out
}
