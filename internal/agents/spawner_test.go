package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnPopulation(t *testing.T) {
	s := NewSpawner()
	pop := s.SpawnPopulation(SpawnConfig{
		Size:          5,
		SlotsPerAgent: 3,
		SocialShare:   0.4,
		Cohorts:       2,
		SocialCapital: true,
	})

	require.Len(t, pop, 5)
	counts := CountByStrategy(pop)
	assert.Equal(t, 2, counts[StrategySocial])
	assert.Equal(t, 3, counts[StrategySelfish])

	for i, a := range pop {
		assert.Equal(t, AgentID(i+1), a.ID)
		assert.Equal(t, i%2, a.Cohort)
		assert.Equal(t, 3, a.SlotsPerAgent)
		require.NotNil(t, a.Ledger)
		assert.Equal(t, 4, a.Ledger.Len(), "one account per other agent")
		assert.False(t, a.Ledger.Has(a.ID))
	}
}

func TestSpawnPopulation_WithoutSocialCapital(t *testing.T) {
	pop := NewSpawner().SpawnPopulation(SpawnConfig{Size: 3, SlotsPerAgent: 1, SocialShare: 1})

	for _, a := range pop {
		assert.Nil(t, a.Ledger)
		assert.Equal(t, StrategySocial, a.Strategy)
		assert.Equal(t, 0, a.Cohort)
	}
}

func TestSpawner_SetNextID(t *testing.T) {
	s := NewSpawner()
	s.SetNextID(40)

	pop := s.SpawnPopulation(SpawnConfig{Size: 2, SlotsPerAgent: 1})

	assert.Equal(t, AgentID(40), pop[0].ID)
	assert.Equal(t, AgentID(41), pop[1].ID)
	assert.Contains(t, Index(pop), AgentID(41))
}

func TestLedger(t *testing.T) {
	l := NewLedger(1, []AgentID{1, 2, 3})

	l.Credit(2)
	l.Credit(2)
	l.Debit(3)
	l.Set(3, Favours{Owed: -4, Given: 6})

	assert.Equal(t, 2, l.OwedTo(2))
	assert.Equal(t, 0, l.GivenTo(2))
	assert.Equal(t, 0, l.OwedTo(3), "counts never go negative")
	assert.Equal(t, 6, l.GivenTo(3))
	assert.Equal(t, Favours{Owed: 2, Given: 6}, l.Totals())
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, ok := ParseStrategy(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseStrategy("altruist")
	assert.False(t, ok)
}
