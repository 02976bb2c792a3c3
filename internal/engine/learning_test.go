package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/stats"
)

// learningScenario returns a population and a snapshot with the given
// satisfactions and strategies.
func learningScenario(sats []float64, strategies []agents.Strategy) ([]*agents.Agent, stats.Snapshot) {
	population := make([]*agents.Agent, len(sats))
	snap := make(stats.Snapshot, len(sats))
	for i := range sats {
		population[i] = &agents.Agent{ID: agents.AgentID(i), Strategy: strategies[i], SlotsPerAgent: 2}
		snap[i] = stats.Sample{AgentID: agents.AgentID(i), Strategy: strategies[i], Satisfaction: sats[i]}
	}
	return population, snap
}

func TestFitness(t *testing.T) {
	assert.Equal(t, 0.0, fitness(0.2, 2))
	assert.Equal(t, 1.0, fitness(0.5, 2))
	assert.Equal(t, 3.0, fitness(0.75, 4))
}

func TestRandomImitation_Evolve(t *testing.T) {
	population, snap := learningScenario(
		[]float64{0, 1, 0.5},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySocial, agents.StrategySelfish},
	)
	policy := &RandomImitation{Learners: 2, SlotsPerAgent: 2}
	// Learner 0 observes agent 1 and adopts (0.3 < 2σ(1)-1 ≈ 0.46).
	// Learner 2 observes agent 1 and keeps its strategy (0.9 > 2σ(0.5)-1 ≈ 0.24).
	src := &entropy.Scripted{Ints: []int{0, 0, 1, 1}, Floats: []float64{0.3, 0.9}}

	adoptions := policy.Evolve(snap, population, src)

	assert.Equal(t, []Adoption{{AgentID: 0, From: agents.StrategySelfish, To: agents.StrategySocial}}, adoptions)
	assert.Equal(t, agents.StrategySocial, population[0].Strategy)
	assert.Equal(t, agents.StrategySocial, population[1].Strategy)
	assert.Equal(t, agents.StrategySelfish, population[2].Strategy)
	assert.Empty(t, src.Ints)
	assert.Empty(t, src.Floats)
}

func TestRandomImitation_NoDrawWhenNotBetter(t *testing.T) {
	population, snap := learningScenario(
		[]float64{1, 0.5},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySocial},
	)
	policy := &RandomImitation{Learners: 1, SlotsPerAgent: 2}
	// A float draw would panic on the empty script.
	src := &entropy.Scripted{Ints: []int{0, 0}}

	adoptions := policy.Evolve(snap, population, src)

	assert.Empty(t, adoptions)
	assert.Equal(t, agents.StrategySelfish, population[0].Strategy)
}

func TestRandomImitation_SingleAgent(t *testing.T) {
	population, snap := learningScenario([]float64{0}, []agents.Strategy{agents.StrategySelfish})
	policy := &RandomImitation{Learners: 5, SlotsPerAgent: 2}

	adoptions := policy.Evolve(snap, population, &entropy.Scripted{Ints: []int{0}})

	assert.Empty(t, adoptions)
}

// countingSource records the bound of every Intn call.
type countingSource struct {
	*entropy.Scripted
	bounds []int
}

func (c *countingSource) Intn(n int) int {
	c.bounds = append(c.bounds, n)
	return c.Scripted.Intn(n)
}

func TestRandomImitation_LearnersDrawnWithoutReplacement(t *testing.T) {
	population, snap := learningScenario(
		[]float64{0, 0, 0, 1},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySelfish, agents.StrategySelfish, agents.StrategySocial},
	)
	policy := &RandomImitation{Learners: 3, SlotsPerAgent: 2}
	// Each learner takes the head of the shrinking pool and observes agent 3.
	src := &countingSource{Scripted: &entropy.Scripted{
		Ints:   []int{0, 2, 0, 2, 0, 2},
		Floats: []float64{0, 0, 0},
	}}

	adoptions := policy.Evolve(snap, population, src)

	// Learner draws shrink 4, 3, 2; observer draws span the other n-1 agents.
	assert.Equal(t, []int{4, 3, 3, 3, 2, 3}, src.bounds)
	require.Len(t, adoptions, 3)
	seen := map[agents.AgentID]bool{}
	for _, a := range adoptions {
		assert.False(t, seen[a.AgentID], "agent %d learned twice", a.AgentID)
		seen[a.AgentID] = true
	}
	assert.Equal(t, map[agents.AgentID]bool{0: true, 1: true, 2: true}, seen)
	assert.Empty(t, src.Ints)
}

func TestRandomImitation_MoreLearnersThanAgents(t *testing.T) {
	population, snap := learningScenario(
		[]float64{0, 0, 0},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySocial, agents.StrategySocial},
	)
	policy := &RandomImitation{Learners: 10, SlotsPerAgent: 2}
	src := &countingSource{Scripted: &entropy.Scripted{Ints: []int{0, 0, 0, 0, 0, 0}}}

	adoptions := policy.Evolve(snap, population, src)

	// Three learners exhaust the pool; equal fitness means no adoption draw.
	assert.Equal(t, []int{3, 2, 2, 2, 1, 2}, src.bounds)
	assert.Empty(t, adoptions)
	assert.Empty(t, src.Ints)
	assert.Equal(t, 2, agents.CountByStrategy(population)[agents.StrategySocial])
}

func TestFitnessProportionate_Evolve(t *testing.T) {
	population, snap := learningScenario(
		[]float64{0, 1, 0.5},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySocial, agents.StrategySelfish},
	)
	policy := &FitnessProportionate{Replace: 1, SlotsPerAgent: 2}
	// Weights are [0, 2, 1]; 0.1 × 3 lands in agent 1's bucket.
	src := &entropy.Scripted{Floats: []float64{0.1}}

	adoptions := policy.Evolve(snap, population, src)

	require.Len(t, adoptions, 1)
	assert.Equal(t, agents.AgentID(0), adoptions[0].AgentID)
	assert.Equal(t, agents.StrategySocial, population[0].Strategy)
}

func TestFitnessProportionate_AllZeroFitness(t *testing.T) {
	population, snap := learningScenario(
		[]float64{0, 0.2},
		[]agents.Strategy{agents.StrategySelfish, agents.StrategySocial},
	)
	policy := &FitnessProportionate{Replace: 2, SlotsPerAgent: 2}

	adoptions := policy.Evolve(snap, population, &entropy.Scripted{})

	assert.Empty(t, adoptions)
	assert.Equal(t, agents.StrategySelfish, population[0].Strategy)
}

func TestNewLearningPolicy(t *testing.T) {
	cfg := *config.Default()

	policy, err := NewLearningPolicy(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.PolicyRandomImitation, policy.Name())

	cfg.LearningPolicy = config.PolicyFitnessProportionate
	policy, err = NewLearningPolicy(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.PolicyFitnessProportionate, policy.Name())

	cfg.LearningPolicy = "bogus"
	_, err = NewLearningPolicy(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
