// Simulation ties together the population, the random stream and the
// exchange protocol for one run.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/economy"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/stats"
)

// Recorder receives the in-memory records a run produces.
type Recorder interface {
	RecordRound(r stats.RoundSummary) error
	RecordDay(d stats.DaySummary) error
}

// Simulation is the per-run context. It exclusively owns the population
// and the random stream; every phase reaches them through it.
type Simulation struct {
	Config     config.Config
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	Rng        entropy.Source
	Policy     LearningPolicy
	Recorder   Recorder // May be nil

	Day   int // Most recent day completed
	Round int // Rounds run so far today

	// OnDecision, when set, observes every proposal and the receiver's
	// decision in the order they are made.
	OnDecision func(day, round int, p agents.Proposal, d agents.Decision)

	roundsOfInterest map[int]bool
}

// NewSimulation creates a run from cfg. cfg must carry curves; its seed
// feeds the run's random stream.
func NewSimulation(cfg config.Config, rec Recorder) (*Simulation, error) {
	if !cfg.HasCurves() {
		return nil, fmt.Errorf("%w: demand and availability curves are required", config.ErrInvalid)
	}
	if need := cfg.Population * cfg.SlotsPerAgent; economy.Capacity(cfg.Availability) < need {
		return nil, fmt.Errorf("%w: pool of %d tokens for %d requests",
			economy.ErrPoolExhausted, economy.Capacity(cfg.Availability), need)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := NewLearningPolicy(cfg)
	if err != nil {
		return nil, err
	}

	population := agents.NewSpawner().SpawnPopulation(agents.SpawnConfig{
		Size:          cfg.Population,
		SlotsPerAgent: cfg.SlotsPerAgent,
		SocialShare:   cfg.SocialShare,
		Cohorts:       len(cfg.Cohorts),
		SocialCapital: cfg.SocialCapital,
	})

	return newSimulation(cfg, population, entropy.NewStream(cfg.Seed), policy, rec), nil
}

func newSimulation(cfg config.Config, population []*agents.Agent, rng entropy.Source, policy LearningPolicy, rec Recorder) *Simulation {
	return &Simulation{
		Config:           cfg,
		Agents:           population,
		AgentIndex:       agents.Index(population),
		Rng:              rng,
		Policy:           policy,
		Recorder:         rec,
		roundsOfInterest: cfg.RoundsOfInterestSet(),
	}
}

// shuffledAgents returns the population in a fresh random order. The
// underlying slice is left untouched.
func (s *Simulation) shuffledAgents() []*agents.Agent {
	order := make([]*agents.Agent, len(s.Agents))
	copy(order, s.Agents)
	entropy.ShuffleSlice(s.Rng, order)
	return order
}

// RunDay runs one complete day: fresh requests, the random initial
// allocation, exchange rounds until the termination rule fires, the day's
// summary, and finally social learning.
func (s *Simulation) RunDay() (stats.DaySummary, error) {
	day := s.Day + 1
	s.Round = 0

	for _, a := range s.Agents {
		a.ResetDay()
		demand := s.Config.Cohorts[a.Cohort].Demand
		if _, err := a.RequestTimeSlots(demand, s.Rng); err != nil {
			return stats.DaySummary{}, fmt.Errorf("day %d: %w", day, err)
		}
	}

	if err := economy.InitialAllocation(s.Config.Availability, s.Agents, s.Rng); err != nil {
		return stats.DaySummary{}, fmt.Errorf("day %d: %w", day, err)
	}

	randomBaseline := stats.MeanSatisfaction(stats.Take(s.Agents))
	optimumBaseline := stats.PopulationOptimum(s.Agents)

	tally, err := s.exchangeUntilDone(day)
	if err != nil {
		return stats.DaySummary{}, err
	}

	snap := stats.Take(s.Agents)
	summary := stats.NewDaySummary(day, snap, s.Agents, randomBaseline, optimumBaseline, tally)
	if s.Recorder != nil {
		if err := s.Recorder.RecordDay(summary); err != nil {
			return summary, fmt.Errorf("record day %d: %w", day, err)
		}
	}

	adoptions := s.Policy.Evolve(snap, s.Agents, s.Rng)
	s.Day = day

	slog.Debug("day complete",
		"day", day,
		"rounds", tally.Rounds,
		"settled", tally.Settled,
		"satisfaction", fmt.Sprintf("%.3f", summary.Overall),
		"adoptions", len(adoptions),
	)
	return summary, nil
}

// exchangeUntilDone runs rounds until the configured termination rule
// fires and returns the day's tally.
func (s *Simulation) exchangeUntilDone(day int) (stats.ExchangeTally, error) {
	var tally stats.ExchangeTally
	idle := 0
	record := s.Recorder != nil && s.roundsOfInterest[day]

	for !s.Config.Termination.Done(s.Round, idle) {
		s.Round++
		result := s.ExchangeRound(day)
		tally.Add(result)

		if result.Settled > 0 {
			idle = 0
		} else {
			idle++
		}

		if record {
			rs := stats.NewRoundSummary(day, s.Round, stats.Take(s.Agents), result)
			if err := s.Recorder.RecordRound(rs); err != nil {
				return tally, fmt.Errorf("record day %d round %d: %w", day, s.Round, err)
			}
		}
	}
	return tally, nil
}

// Snapshot returns the population's current satisfaction.
func (s *Simulation) Snapshot() stats.Snapshot {
	return stats.Take(s.Agents)
}
