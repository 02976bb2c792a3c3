// Social learning, the end-of-day strategy update. Policies read a
// snapshot taken before any change and rewrite strategies in place.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/stats"
)

// Adoption records one agent switching strategy.
type Adoption struct {
	AgentID agents.AgentID
	From    agents.Strategy
	To      agents.Strategy
}

// LearningPolicy updates strategies once per day. snap[i] describes
// population[i] as it stood before the update.
type LearningPolicy interface {
	Name() string
	Evolve(snap stats.Snapshot, population []*agents.Agent, rng entropy.Source) []Adoption
}

// NewLearningPolicy returns the policy named in cfg.
func NewLearningPolicy(cfg config.Config) (LearningPolicy, error) {
	switch cfg.LearningPolicy {
	case config.PolicyRandomImitation:
		return &RandomImitation{Learners: cfg.AgentsToEvolve, SlotsPerAgent: cfg.SlotsPerAgent}, nil
	case config.PolicyFitnessProportionate:
		return &FitnessProportionate{Replace: cfg.AgentsToEvolve, SlotsPerAgent: cfg.SlotsPerAgent}, nil
	default:
		return nil, fmt.Errorf("%w: unknown learning policy %q", config.ErrInvalid, cfg.LearningPolicy)
	}
}

// fitness is an agent's satisfaction expressed in whole satisfied slots.
func fitness(satisfaction float64, slotsPerAgent int) float64 {
	return math.Round(satisfaction * float64(slotsPerAgent))
}

// RandomImitation lets up to Learners distinct agents each observe one
// random peer and, if the peer did strictly better in whole slots, adopt
// its strategy with probability 2σ(diff) − 1, where diff is the
// satisfaction gap and σ the logistic function.
type RandomImitation struct {
	Learners      int
	SlotsPerAgent int
}

// Name identifies the policy.
func (r *RandomImitation) Name() string { return config.PolicyRandomImitation }

// Evolve applies the policy. Draw order per learner: learner index,
// observed index, then the adoption draw only when the peer did better.
func (r *RandomImitation) Evolve(snap stats.Snapshot, population []*agents.Agent, rng entropy.Source) []Adoption {
	n := len(population)
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	var adoptions []Adoption
	for step := 0; step < r.Learners && len(pool) > 0; step++ {
		k := rng.Intn(len(pool))
		learner := pool[k]
		pool = append(pool[:k], pool[k+1:]...)

		if n < 2 {
			continue
		}
		// Uniform over everyone but the learner.
		observed := rng.Intn(n - 1)
		if observed >= learner {
			observed++
		}

		mine, theirs := snap[learner], snap[observed]
		if fitness(mine.Satisfaction, r.SlotsPerAgent) >= fitness(theirs.Satisfaction, r.SlotsPerAgent) {
			continue
		}
		diff := theirs.Satisfaction - mine.Satisfaction
		chance := 2*(1/(1+math.Exp(-diff))) - 1
		if rng.Float() >= chance {
			continue
		}

		a := population[learner]
		if a.Strategy != theirs.Strategy {
			adoptions = append(adoptions, Adoption{AgentID: a.ID, From: a.Strategy, To: theirs.Strategy})
		}
		a.Strategy = theirs.Strategy
	}
	return adoptions
}

// FitnessProportionate ranks agents by whole-slot fitness and gives the
// Replace least fit a strategy drawn by roulette wheel, each agent's
// strategy weighted by its fitness.
type FitnessProportionate struct {
	Replace       int
	SlotsPerAgent int
}

// Name identifies the policy.
func (f *FitnessProportionate) Name() string { return config.PolicyFitnessProportionate }

// Evolve applies the policy. Ties in fitness keep population order.
func (f *FitnessProportionate) Evolve(snap stats.Snapshot, population []*agents.Agent, rng entropy.Source) []Adoption {
	n := len(population)
	weights := make([]float64, n)
	ranked := make([]int, n)
	for i := range population {
		weights[i] = fitness(snap[i].Satisfaction, f.SlotsPerAgent)
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool { return weights[ranked[a]] < weights[ranked[b]] })

	var adoptions []Adoption
	for k := 0; k < f.Replace && k < n; k++ {
		pick := entropy.Roulette(rng, weights)
		if pick < 0 {
			break
		}
		a := population[ranked[k]]
		to := snap[pick].Strategy
		if a.Strategy != to {
			adoptions = append(adoptions, Adoption{AgentID: a.ID, From: a.Strategy, To: to})
		}
		a.Strategy = to
	}
	return adoptions
}
