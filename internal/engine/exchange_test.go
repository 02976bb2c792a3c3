package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/config"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/slots"
	"github.com/talgya/slot-exchange/internal/stats"
)

// scenario builds a simulation over hand-made agents with a scripted
// random source, so shuffles keep declaration order.
func scenario(cfg config.Config, src *entropy.Scripted, population ...*agents.Agent) *Simulation {
	policy, _ := NewLearningPolicy(cfg)
	return newSimulation(cfg, population, src, policy, nil)
}

func scenarioConfig(slotsPerAgent int) config.Config {
	cfg := *config.Default()
	cfg.SlotsPerAgent = slotsPerAgent
	cfg.Termination = config.Termination{Mode: config.TerminationFixed, MaxRounds: 1}
	return cfg
}

func slotAgent(id agents.AgentID, strategy agents.Strategy, requested, allocated slots.Bag) *agents.Agent {
	return &agents.Agent{
		ID:            id,
		Strategy:      strategy,
		SlotsPerAgent: len(requested),
		Requested:     requested,
		Allocated:     allocated,
	}
}

func TestExchangeRound_TwoAgentSwap(t *testing.T) {
	a := slotAgent(1, agents.StrategySelfish, slots.Bag{1}, slots.Bag{2})
	b := slotAgent(2, agents.StrategySelfish, slots.Bag{2}, slots.Bag{1})
	sim := scenario(scenarioConfig(1), &entropy.Scripted{}, a, b)

	tally := sim.ExchangeRound(1)

	assert.Equal(t, 1, tally.Proposals)
	assert.Equal(t, 1, tally.Accepted)
	assert.Equal(t, 1, tally.Settled)
	assert.Equal(t, 1.0, a.Satisfaction(nil))
	assert.Equal(t, 1.0, b.Satisfaction(nil))
	assert.Equal(t, 1, a.Counters.AcceptedRequested)
	assert.Equal(t, 1, b.Counters.AcceptedWithoutFavour)
}

func TestExchangeRound_TwoAgentSwapAnyOrder(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		a := slotAgent(1, agents.StrategySelfish, slots.Bag{1}, slots.Bag{2})
		b := slotAgent(2, agents.StrategySocial, slots.Bag{2}, slots.Bag{1})
		cfg := scenarioConfig(1)
		policy, err := NewLearningPolicy(cfg)
		require.NoError(t, err)
		sim := newSimulation(cfg, []*agents.Agent{a, b}, entropy.NewStream(seed), policy, nil)

		tally := sim.ExchangeRound(1)

		require.Equal(t, 1, tally.Settled, "seed %d", seed)
		assert.Equal(t, 1.0, a.Satisfaction(nil))
		assert.Equal(t, 1.0, b.Satisfaction(nil))
	}
}

func TestExchangeRound_SelfishRejectsNeutral(t *testing.T) {
	// Agent 1 wants 3, held by agent 2, who wants 4 and gains nothing from
	// the offered slot 5.
	proposer := slotAgent(1, agents.StrategySocial, slots.Bag{3}, slots.Bag{5})
	receiver := slotAgent(2, agents.StrategySelfish, slots.Bag{4}, slots.Bag{3})
	sim := scenario(scenarioConfig(1), &entropy.Scripted{}, proposer, receiver)

	var decisions []agents.Decision
	sim.OnDecision = func(_, _ int, _ agents.Proposal, d agents.Decision) {
		decisions = append(decisions, d)
	}

	tally := sim.ExchangeRound(1)

	assert.Equal(t, []agents.Decision{agents.DecisionReject}, decisions)
	assert.Equal(t, 0, tally.Settled)
	assert.Equal(t, 1, proposer.Counters.RejectedRequested)
	assert.Equal(t, 1, receiver.Counters.RejectedReceived)
	assert.Equal(t, slots.Bag{5}, proposer.Allocated)
}

func TestExchangeRound_SocialRepaysFavour(t *testing.T) {
	proposer := slotAgent(1, agents.StrategySelfish, slots.Bag{3}, slots.Bag{5})
	receiver := slotAgent(2, agents.StrategySocial, slots.Bag{4}, slots.Bag{3})
	population := []*agents.Agent{proposer, receiver}
	for _, a := range population {
		a.SocialCapital = true
	}
	agents.InitLedgers(population)
	receiver.Ledger.Set(1, agents.Favours{Owed: 2, Given: 0})

	cfg := scenarioConfig(1)
	cfg.SocialCapital = true
	sim := scenario(cfg, &entropy.Scripted{}, population...)

	tally := sim.ExchangeRound(1)

	assert.Equal(t, 1, tally.Favours)
	assert.Equal(t, 1, tally.Settled)
	assert.Equal(t, slots.Bag{3}, proposer.Allocated)
	assert.Equal(t, slots.Bag{5}, receiver.Allocated)
	assert.Equal(t, 1, receiver.Counters.AcceptedViaFavour)
	assert.Equal(t, 1, receiver.Ledger.GivenTo(1))
	assert.Equal(t, 2, receiver.Ledger.OwedTo(1))
}

func TestExchangeRound_EachAgentEngagedOnce(t *testing.T) {
	// Agents 1 and 3 both want slot 2, which only agent 2 advertises.
	a1 := slotAgent(1, agents.StrategySelfish, slots.Bag{2}, slots.Bag{4})
	a2 := slotAgent(2, agents.StrategySelfish, slots.Bag{4}, slots.Bag{2})
	a3 := slotAgent(3, agents.StrategySelfish, slots.Bag{2}, slots.Bag{5})
	sim := scenario(scenarioConfig(1), &entropy.Scripted{}, a1, a2, a3)

	var proposals []agents.Proposal
	sim.OnDecision = func(_, _ int, p agents.Proposal, _ agents.Decision) {
		proposals = append(proposals, p)
	}

	tally := sim.ExchangeRound(1)

	require.Len(t, proposals, 1)
	assert.Equal(t, agents.AgentID(1), proposals[0].ProposerID)
	assert.Equal(t, agents.AgentID(2), proposals[0].ReceiverID)
	assert.Equal(t, 1, tally.Settled)
	assert.Equal(t, slots.Bag{5}, a3.Allocated)
}

func TestSettle_DropsStaleProposals(t *testing.T) {
	proposer := slotAgent(1, agents.StrategySelfish, slots.Bag{3}, slots.Bag{5})
	receiver := slotAgent(2, agents.StrategySelfish, slots.Bag{5}, slots.Bag{3})
	sim := scenario(scenarioConfig(1), &entropy.Scripted{}, proposer, receiver)

	// The receiver gave slot 3 away after approving.
	receiver.Allocated = slots.Bag{7}
	approved := map[agents.AgentID]agents.Proposal{
		2: {ProposerID: 1, ReceiverID: 2, Wanted: 3, Offered: 5},
	}
	var tally stats.ExchangeTally

	sim.settle(approved, &tally)

	assert.Equal(t, 1, tally.Dropped)
	assert.Equal(t, 0, tally.Settled)
	assert.Equal(t, slots.Bag{5}, proposer.Allocated)
	assert.Equal(t, slots.Bag{7}, receiver.Allocated)
}

func TestFinalCheck(t *testing.T) {
	proposer := slotAgent(1, agents.StrategySelfish, slots.Bag{3}, slots.Bag{5})
	receiver := slotAgent(2, agents.StrategySelfish, slots.Bag{5}, slots.Bag{3})

	assert.True(t, finalCheck(proposer, receiver, agents.Proposal{Wanted: 3, Offered: 5}))
	assert.False(t, finalCheck(proposer, receiver, agents.Proposal{Wanted: 3, Offered: 6}))
	assert.False(t, finalCheck(proposer, receiver, agents.Proposal{Wanted: 4, Offered: 5}))
}

func TestExchangeRound_ConservesSlots(t *testing.T) {
	sim := newTestSimulation(t, 31)
	for _, a := range sim.Agents {
		_, err := a.RequestTimeSlots(sim.Config.Cohorts[a.Cohort].Demand, sim.Rng)
		require.NoError(t, err)
	}
	require.NoError(t, allocate(sim))

	for round := 0; round < 15; round++ {
		before := pooledAllocation(sim)
		sim.ExchangeRound(1)

		assert.True(t, before.SameElements(pooledAllocation(sim)), "round %d", round)
		for _, a := range sim.Agents {
			require.Len(t, a.Allocated, sim.Config.SlotsPerAgent)
		}
	}
}
