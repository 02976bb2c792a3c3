// Package config loads and validates the parameters of a simulation run.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Termination modes for the exchange rounds of a day.
const (
	TerminationFixed   = "fixed"   // Exactly MaxRounds rounds
	TerminationTimeout = "timeout" // Until TimeoutRounds consecutive rounds settle nothing
)

// Learning policies for the end-of-day strategy update.
const (
	PolicyRandomImitation      = "random_imitation"
	PolicyFitnessProportionate = "fitness_proportionate"
)

// DefaultTimeoutRounds is the idle-round threshold used when none is set.
const DefaultTimeoutRounds = 10

// Termination decides when a day's exchange rounds stop. The mode is
// always explicit.
type Termination struct {
	Mode          string `yaml:"mode"`
	MaxRounds     int    `yaml:"max_rounds"`     // Fixed: rounds per day. Timeout: optional hard cap, 0 = none
	TimeoutRounds int    `yaml:"timeout_rounds"` // Timeout: consecutive rounds without settlement
}

// Done reports whether a day that has run rounds rounds, the last idle of
// them without any settlement, should stop.
func (t Termination) Done(rounds, idle int) bool {
	switch t.Mode {
	case TerminationFixed:
		return rounds >= t.MaxRounds
	default:
		if t.MaxRounds > 0 && rounds >= t.MaxRounds {
			return true
		}
		return idle >= t.TimeoutRounds
	}
}

// Cohort is a group of agents sharing one demand curve.
type Cohort struct {
	Name   string    `yaml:"name"`
	Demand []float64 `yaml:"demand"` // Weight per time slot, index 0 = slot 1
}

// Synthetic controls generated curves, used when Cohorts or Availability
// are not given explicitly.
type Synthetic struct {
	Cohorts   int     `yaml:"cohorts"`
	Octaves   int     `yaml:"octaves"`
	Frequency float64 `yaml:"frequency"`
}

// Config holds every parameter of a run.
type Config struct {
	Seed            int64       `yaml:"seed"`
	Population      int         `yaml:"population"`
	SlotsPerAgent   int         `yaml:"slots_per_agent"`
	UniqueTimeSlots int         `yaml:"unique_time_slots"`
	Days            int         `yaml:"days"`
	Termination     Termination `yaml:"termination"`
	AgentsToEvolve  int         `yaml:"agents_to_evolve"`
	SocialCapital   bool        `yaml:"social_capital"`
	LearningPolicy  string      `yaml:"learning_policy"`
	SocialShare     float64     `yaml:"social_share"`

	// Days whose per-round summaries are recorded.
	RoundsOfInterest []int `yaml:"rounds_of_interest"`

	Cohorts      []Cohort  `yaml:"cohorts"`
	Availability []int     `yaml:"availability"`
	Synthetic    Synthetic `yaml:"synthetic"`

	Database string `yaml:"database"`
	LogLevel string `yaml:"log_level"`
}

// Default returns a configuration for a modest run with generated curves.
func Default() *Config {
	return &Config{
		Seed:            42,
		Population:      96,
		SlotsPerAgent:   4,
		UniqueTimeSlots: 24,
		Days:            500,
		Termination: Termination{
			Mode:          TerminationTimeout,
			TimeoutRounds: DefaultTimeoutRounds,
		},
		AgentsToEvolve:   10,
		SocialCapital:    true,
		LearningPolicy:   PolicyRandomImitation,
		SocialShare:      0.5,
		RoundsOfInterest: []int{1, 100, 200, 300, 400, 500},
		Synthetic: Synthetic{
			Cohorts:   3,
			Octaves:   3,
			Frequency: 0.15,
		},
		Database: "data/exchange.db",
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// HasCurves reports whether both demand and availability are supplied.
func (c *Config) HasCurves() bool {
	return len(c.Cohorts) > 0 && len(c.Availability) > 0
}

// Validate checks the scalar parameters, and the curves when present.
func (c *Config) Validate() error {
	switch {
	case c.Population < 1:
		return fmt.Errorf("%w: population must be positive", ErrInvalid)
	case c.SlotsPerAgent < 1:
		return fmt.Errorf("%w: slots_per_agent must be positive", ErrInvalid)
	case c.UniqueTimeSlots < c.SlotsPerAgent:
		return fmt.Errorf("%w: unique_time_slots (%d) below slots_per_agent (%d)",
			ErrInvalid, c.UniqueTimeSlots, c.SlotsPerAgent)
	case c.Days < 1:
		return fmt.Errorf("%w: days must be positive", ErrInvalid)
	case c.AgentsToEvolve < 0:
		return fmt.Errorf("%w: agents_to_evolve must not be negative", ErrInvalid)
	case c.SocialShare < 0 || c.SocialShare > 1:
		return fmt.Errorf("%w: social_share must lie in [0, 1]", ErrInvalid)
	}

	switch c.Termination.Mode {
	case TerminationFixed:
		if c.Termination.MaxRounds < 1 {
			return fmt.Errorf("%w: fixed termination needs max_rounds", ErrInvalid)
		}
	case TerminationTimeout:
		if c.Termination.TimeoutRounds < 1 {
			return fmt.Errorf("%w: timeout termination needs timeout_rounds", ErrInvalid)
		}
		if c.Termination.MaxRounds < 0 {
			return fmt.Errorf("%w: max_rounds must not be negative", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown termination mode %q", ErrInvalid, c.Termination.Mode)
	}

	switch c.LearningPolicy {
	case PolicyRandomImitation, PolicyFitnessProportionate:
	default:
		return fmt.Errorf("%w: unknown learning policy %q", ErrInvalid, c.LearningPolicy)
	}

	if len(c.Cohorts) > 0 {
		if err := c.validateCohorts(); err != nil {
			return err
		}
	}
	if len(c.Availability) > 0 {
		if err := c.validateAvailability(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateCohorts() error {
	for i, cohort := range c.Cohorts {
		if len(cohort.Demand) != c.UniqueTimeSlots {
			return fmt.Errorf("%w: cohort %d has %d demand weights, want %d",
				ErrInvalid, i, len(cohort.Demand), c.UniqueTimeSlots)
		}
		positive := 0
		for _, w := range cohort.Demand {
			if w < 0 {
				return fmt.Errorf("%w: cohort %d has a negative demand weight", ErrInvalid, i)
			}
			if w > 0 {
				positive++
			}
		}
		if positive < c.SlotsPerAgent {
			return fmt.Errorf("%w: cohort %d demands only %d distinct slots, need %d",
				ErrInvalid, i, positive, c.SlotsPerAgent)
		}
	}
	return nil
}

func (c *Config) validateAvailability() error {
	if len(c.Availability) != c.UniqueTimeSlots {
		return fmt.Errorf("%w: availability has %d entries, want %d",
			ErrInvalid, len(c.Availability), c.UniqueTimeSlots)
	}
	total := 0
	for _, capacity := range c.Availability {
		if capacity < 0 {
			return fmt.Errorf("%w: negative availability", ErrInvalid)
		}
		total += capacity
	}
	if need := c.Population * c.SlotsPerAgent; total < need {
		return fmt.Errorf("%w: availability holds %d slots, population needs %d",
			ErrInvalid, total, need)
	}
	return nil
}

// RoundsOfInterestSet returns RoundsOfInterest as a lookup.
func (c *Config) RoundsOfInterestSet() map[int]bool {
	set := make(map[int]bool, len(c.RoundsOfInterest))
	for _, d := range c.RoundsOfInterest {
		set[d] = true
	}
	return set
}
