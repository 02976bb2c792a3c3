// Agent spawning: creates the run's population with strategies, cohorts,
// and favour ledgers.
package agents

import (
	"math"
)

// SpawnConfig controls initial population generation.
type SpawnConfig struct {
	Size          int     // Number of agents
	SlotsPerAgent int     // Slots each agent requests and holds
	SocialShare   float64 // Fraction of agents starting as social, 0.0–1.0
	Cohorts       int     // Number of demand curves agents are spread across
	SocialCapital bool    // Whether agents keep favour ledgers
}

// Spawner creates agents for a run.
type Spawner struct {
	nextID AgentID
}

// NewSpawner creates a spawner issuing IDs from 1.
func NewSpawner() *Spawner {
	return &Spawner{nextID: 1}
}

// SetNextID sets the next agent ID to be issued.
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// SpawnPopulation creates cfg.Size agents. The first round(Size × SocialShare)
// agents are social, the rest selfish; cohorts are dealt round-robin.
// Ledgers are initialized here, once per run.
func (s *Spawner) SpawnPopulation(cfg SpawnConfig) []*Agent {
	cohorts := cfg.Cohorts
	if cohorts < 1 {
		cohorts = 1
	}
	social := int(math.Round(float64(cfg.Size) * cfg.SocialShare))

	population := make([]*Agent, 0, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		strategy := StrategySelfish
		if i < social {
			strategy = StrategySocial
		}
		population = append(population, s.spawnOne(cfg, strategy, i%cohorts))
	}

	if cfg.SocialCapital {
		InitLedgers(population)
	}
	return population
}

func (s *Spawner) spawnOne(cfg SpawnConfig, strategy Strategy, cohort int) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:            id,
		Strategy:      strategy,
		Cohort:        cohort,
		SlotsPerAgent: cfg.SlotsPerAgent,
		SocialCapital: cfg.SocialCapital,
	}
}

// InitLedgers gives every agent a fresh ledger with an account for every
// other agent in population.
func InitLedgers(population []*Agent) {
	ids := make([]AgentID, len(population))
	for i, a := range population {
		ids[i] = a.ID
	}
	for _, a := range population {
		a.Ledger = NewLedger(a.ID, ids)
	}
}

// Index builds an ID → agent lookup.
func Index(population []*Agent) map[AgentID]*Agent {
	index := make(map[AgentID]*Agent, len(population))
	for _, a := range population {
		index[a.ID] = a
	}
	return index
}

// CountByStrategy returns how many agents follow each strategy.
func CountByStrategy(population []*Agent) map[Strategy]int {
	counts := make(map[Strategy]int, len(Strategies))
	for _, s := range Strategies {
		counts[s] = 0
	}
	for _, a := range population {
		counts[a.Strategy]++
	}
	return counts
}
