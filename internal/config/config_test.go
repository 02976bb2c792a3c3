package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yml := `
seed: 7
population: 2
slots_per_agent: 1
unique_time_slots: 2
days: 3
termination:
  mode: fixed
  max_rounds: 5
social_capital: false
learning_policy: fitness_proportionate
cohorts:
  - name: evening
    demand: [1, 3]
availability: [1, 1]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 2, cfg.Population)
	assert.Equal(t, Termination{Mode: TerminationFixed, MaxRounds: 5, TimeoutRounds: DefaultTimeoutRounds}, cfg.Termination)
	assert.False(t, cfg.SocialCapital)
	assert.Equal(t, PolicyFitnessProportionate, cfg.LearningPolicy)
	assert.Equal(t, []Cohort{{Name: "evening", Demand: []float64{1, 3}}}, cfg.Cohorts)
	assert.True(t, cfg.HasCurves())
	assert.Equal(t, 0.5, cfg.SocialShare, "unset fields keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("population: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"population", func(c *Config) { c.Population = 0 }, "population"},
		{"slots", func(c *Config) { c.SlotsPerAgent = 0 }, "slots_per_agent"},
		{"too few unique slots", func(c *Config) { c.UniqueTimeSlots = 2 }, "unique_time_slots"},
		{"days", func(c *Config) { c.Days = 0 }, "days"},
		{"share", func(c *Config) { c.SocialShare = 1.5 }, "social_share"},
		{"unknown mode", func(c *Config) { c.Termination.Mode = "" }, "termination mode"},
		{"fixed without rounds", func(c *Config) { c.Termination = Termination{Mode: TerminationFixed} }, "max_rounds"},
		{"timeout without threshold", func(c *Config) { c.Termination.TimeoutRounds = 0 }, "timeout_rounds"},
		{"policy", func(c *Config) { c.LearningPolicy = "tournament" }, "learning policy"},
		{"demand length", func(c *Config) {
			c.Cohorts = []Cohort{{Demand: []float64{1, 2}}}
		}, "demand weights"},
		{"demand too narrow", func(c *Config) {
			d := make([]float64, c.UniqueTimeSlots)
			d[0] = 1
			c.Cohorts = []Cohort{{Demand: d}}
		}, "distinct slots"},
		{"availability too small", func(c *Config) {
			c.Availability = make([]int, c.UniqueTimeSlots)
		}, "population needs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTermination_Done(t *testing.T) {
	fixed := Termination{Mode: TerminationFixed, MaxRounds: 3}
	assert.False(t, fixed.Done(2, 2))
	assert.True(t, fixed.Done(3, 0))

	timeout := Termination{Mode: TerminationTimeout, TimeoutRounds: 10}
	assert.False(t, timeout.Done(500, 9))
	assert.True(t, timeout.Done(12, 10))

	capped := Termination{Mode: TerminationTimeout, TimeoutRounds: 10, MaxRounds: 20}
	assert.True(t, capped.Done(20, 0))
}

func TestRoundsOfInterestSet(t *testing.T) {
	cfg := &Config{RoundsOfInterest: []int{1, 5}}
	set := cfg.RoundsOfInterestSet()
	assert.True(t, set[5])
	assert.False(t, set[2])
}
