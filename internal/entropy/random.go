// Package entropy provides the seeded random stream a simulation run draws
// from. Every shuffle and weighted draw in a run consumes the same stream in
// a fixed order, so equal seeds replay identical trajectories.
package entropy

import (
	"math/rand"
)

// Source is the random stream consumed by the exchange core.
type Source interface {
	// Intn returns a uniform integer in [0, n). n must be positive.
	Intn(n int) int
	// Float returns a uniform float64 in [0, 1).
	Float() float64
	// Shuffle permutes n elements in place using swap.
	Shuffle(n int, swap func(i, j int))
}

// Stream is a Source backed by a math/rand generator. A Stream belongs to
// exactly one run and is not safe for concurrent use.
type Stream struct {
	seed int64
	rng  *rand.Rand
}

// NewStream creates a stream seeded with seed.
func NewStream(seed int64) *Stream {
	return &Stream{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 { return s.seed }

// Intn returns a uniform integer in [0, n).
func (s *Stream) Intn(n int) int { return s.rng.Intn(n) }

// Float returns a uniform float64 in [0, 1).
func (s *Stream) Float() float64 { return s.rng.Float64() }

// Shuffle permutes n elements in place.
func (s *Stream) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// Fork derives an independent stream for a collaborator that must not
// perturb the run's own draw order (e.g. synthetic curve generation).
func (s *Stream) Fork(offset int64) *Stream {
	return NewStream(s.seed + offset)
}

// ShuffleSlice permutes xs in place using src.
func ShuffleSlice[T any](src Source, xs []T) {
	src.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// Roulette returns the index selected by a roulette-wheel draw over
// weights: a uniform point in [0, total) lands in the first bucket whose
// cumulative weight exceeds it. Zero-weight buckets are never selected.
// Returns -1 when no weight is positive.
func Roulette(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	point := src.Float() * total
	cumulative := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if point < cumulative {
			return i
		}
	}
	// Rounding can leave point marginally above the final cumulative sum.
	return last
}
