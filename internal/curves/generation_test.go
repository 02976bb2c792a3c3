package curves

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/slot-exchange/internal/config"
)

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestDiscretize(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		total   int
		want    []int
	}{
		{"exact shares", []float64{1, 1, 2}, 8, []int{2, 2, 4}},
		{"largest remainder", []float64{1, 1, 1}, 4, []int{2, 1, 1}},
		{"zero weight gets nothing", []float64{0, 3, 1}, 4, []int{0, 3, 1}},
		{"all zero spreads evenly", []float64{0, 0, 0}, 5, []int{2, 2, 1}},
		{"negative treated as zero", []float64{-2, 1}, 3, []int{0, 3}},
		{"empty", nil, 3, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discretize(tt.weights, tt.total)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfile_DeterministicAndPositive(t *testing.T) {
	cfg := GenConfig{Slots: 24, Cohorts: 2, Octaves: 3, Frequency: 0.2, Seed: 9}

	a := Profile(cfg, 1)
	b := Profile(cfg, 1)

	require.Len(t, a, 24)
	assert.Equal(t, a, b)
	for _, v := range a {
		assert.GreaterOrEqual(t, v, floor)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestFill(t *testing.T) {
	cfg := config.Default()
	cfg.Cohorts = nil
	cfg.Availability = nil

	Fill(cfg)

	require.Len(t, cfg.Cohorts, cfg.Synthetic.Cohorts)
	for _, c := range cfg.Cohorts {
		assert.Len(t, c.Demand, cfg.UniqueTimeSlots)
	}
	require.Len(t, cfg.Availability, cfg.UniqueTimeSlots)
	assert.Equal(t, cfg.Population*cfg.SlotsPerAgent, sum(cfg.Availability))
	assert.NoError(t, cfg.Validate())
}

func TestFill_KeepsExplicitCurves(t *testing.T) {
	cfg := config.Default()
	cfg.UniqueTimeSlots = 4
	cfg.SlotsPerAgent = 1
	cfg.Population = 2
	cfg.Cohorts = []config.Cohort{{Name: "given", Demand: []float64{1, 0, 0, 1}}}

	Fill(cfg)

	assert.Equal(t, "given", cfg.Cohorts[0].Name)
	assert.Equal(t, 2, sum(cfg.Availability))
}
