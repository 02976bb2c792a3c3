// Package economy provides the daily pool of slot tokens and the random
// initial allocation drawn from it.
package economy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/slots"
)

// ErrPoolExhausted means the pool ran dry before every agent was served.
// The pool must hold at least population × slots-per-agent tokens; running
// out is an upstream sizing fault and aborts the run.
var ErrPoolExhausted = errors.New("slot pool exhausted")

// Pool holds the day's slot tokens. Each slot appears once per unit of
// capacity in the availability profile.
type Pool struct {
	tokens []slots.TimeSlot
}

// NewPool builds a pool where slot i+1 appears availability[i] times.
// Negative capacities count as zero.
func NewPool(availability []int) *Pool {
	total := 0
	for _, c := range availability {
		if c > 0 {
			total += c
		}
	}
	tokens := make([]slots.TimeSlot, 0, total)
	for i, c := range availability {
		for j := 0; j < c; j++ {
			tokens = append(tokens, slots.TimeSlot(i+1))
		}
	}
	return &Pool{tokens: tokens}
}

// Remaining returns the number of tokens left.
func (p *Pool) Remaining() int { return len(p.tokens) }

// Draw removes n uniformly random tokens, one at a time, and returns them.
func (p *Pool) Draw(rng entropy.Source, n int) (slots.Bag, error) {
	drawn := make(slots.Bag, 0, n)
	for i := 0; i < n; i++ {
		if len(p.tokens) == 0 {
			return nil, fmt.Errorf("%w: drew %d of %d", ErrPoolExhausted, i, n)
		}
		k := rng.Intn(len(p.tokens))
		drawn.Add(p.tokens[k])
		p.tokens = slices.Delete(p.tokens, k, k+1)
	}
	return drawn, nil
}

// InitialAllocation serves every agent, in population order, with
// SlotsPerAgent tokens drawn from a fresh pool built from availability.
// The draw ignores what agents asked for, leaving room for exchange.
func InitialAllocation(availability []int, population []*agents.Agent, rng entropy.Source) error {
	pool := NewPool(availability)
	for _, a := range population {
		drawn, err := pool.Draw(rng, a.SlotsPerAgent)
		if err != nil {
			return fmt.Errorf("allocate agent %d: %w", a.ID, err)
		}
		a.Allocated = drawn
	}
	return nil
}

// Capacity returns the total number of tokens availability provides.
func Capacity(availability []int) int {
	total := 0
	for _, c := range availability {
		if c > 0 {
			total += c
		}
	}
	return total
}
