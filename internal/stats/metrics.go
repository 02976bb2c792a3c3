// Package stats computes satisfaction statistics over a population snapshot:
// means, spread, order statistics, and the random and optimum baselines.
// Every function is pure; statistics over an empty group are zero.
package stats

import (
	"math"
	"slices"

	"github.com/grd/stat"
	"golang.org/x/exp/constraints"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/slots"
)

// Sample is one agent's strategy and satisfaction at snapshot time.
type Sample struct {
	AgentID      agents.AgentID  `json:"agent_id"`
	Strategy     agents.Strategy `json:"strategy"`
	Satisfaction float64         `json:"satisfaction"`
}

// Snapshot is an immutable view of the population's satisfaction.
type Snapshot []Sample

// Take records every agent's strategy and current satisfaction.
func Take(population []*agents.Agent) Snapshot {
	snap := make(Snapshot, len(population))
	for i, a := range population {
		snap[i] = Sample{
			AgentID:      a.ID,
			Strategy:     a.Strategy,
			Satisfaction: a.Satisfaction(nil),
		}
	}
	return snap
}

// Values returns all satisfactions in snapshot order.
func (s Snapshot) Values() []float64 {
	out := make([]float64, len(s))
	for i, x := range s {
		out[i] = x.Satisfaction
	}
	return out
}

// ValuesFor returns the satisfactions of agents following strategy.
func (s Snapshot) ValuesFor(strategy agents.Strategy) []float64 {
	var out []float64
	for _, x := range s {
		if x.Strategy == strategy {
			out = append(out, x.Satisfaction)
		}
	}
	return out
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(stat.Float64Slice(xs))
}

// StandardDeviation returns the population standard deviation of xs
// (divisor n), or 0 for an empty slice.
func StandardDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	data := stat.Float64Slice(xs)
	return stat.SdWithFixedMean(data, stat.Mean(data))
}

// MeanSatisfaction returns the mean satisfaction of the whole snapshot.
func MeanSatisfaction(s Snapshot) float64 {
	return Mean(s.Values())
}

// MeanByStrategy returns the mean satisfaction of agents following strategy.
func MeanByStrategy(s Snapshot, strategy agents.Strategy) float64 {
	return Mean(s.ValuesFor(strategy))
}

// Median returns the middle element of sorted xs, or the mean of the two
// middle elements for an even length.
func Median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 1:
		return sorted[n/2]
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// Quartiles returns the lower quartile, median and upper quartile of
// sorted xs. The quartiles are the medians of the lower and upper halves;
// for an odd length the median itself belongs to neither half.
func Quartiles(sorted []float64) (lower, median, upper float64) {
	n := len(sorted)
	switch n {
	case 0:
		return 0, 0, 0
	case 1:
		return sorted[0], sorted[0], sorted[0]
	}
	median = Median(sorted)
	half := n / 2
	lower = Median(sorted[:half])
	if n%2 == 1 {
		upper = Median(sorted[half+1:])
	} else {
		upper = Median(sorted[half:])
	}
	return lower, median, upper
}

// Percentile returns the p-th percentile of sorted xs by linear
// interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	fn := float64(n)
	i := int(math.Floor(p*fn/100 - 0.5))
	if i < 0 {
		return sorted[0]
	}
	if i >= n-1 {
		return sorted[n-1]
	}
	weight := (p/100 - (float64(i)+0.5)/fn) / (1 / fn)
	return sorted[i] + weight*(sorted[i+1]-sorted[i])
}

// OptimumSatisfaction returns the share of all requested slots that could
// be met by redistributing the allocated slots: the one-to-one matching
// between the pooled requests and the pooled allocations, over the number
// of requests.
func OptimumSatisfaction(requested, allocated slots.Bag) float64 {
	if len(requested) == 0 {
		return 0
	}
	return float64(requested.IntersectionSize(allocated)) / float64(len(requested))
}

// PopulationOptimum pools every agent's requests and allocations and
// returns OptimumSatisfaction over them.
func PopulationOptimum(population []*agents.Agent) float64 {
	var requested, allocated slots.Bag
	for _, a := range population {
		requested = append(requested, a.Requested...)
		allocated = append(allocated, a.Allocated...)
	}
	return OptimumSatisfaction(requested, allocated)
}

// TypeStats summarizes the satisfaction of one strategy group.
type TypeStats struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"mean"`
	SD            float64 `json:"sd"`
	Min           float64 `json:"min"`
	LowerQuartile float64 `json:"lower_quartile"`
	Median        float64 `json:"median"`
	UpperQuartile float64 `json:"upper_quartile"`
	Max           float64 `json:"max"`
	Percentile95  float64 `json:"percentile_95"`
}

// Describe computes TypeStats over xs. An empty group yields all zeros.
func Describe(xs []float64) TypeStats {
	if len(xs) == 0 {
		return TypeStats{}
	}
	sorted := sortedCopy(xs)
	lower, median, upper := Quartiles(sorted)
	return TypeStats{
		Count:         len(sorted),
		Mean:          Mean(sorted),
		SD:            StandardDeviation(sorted),
		Min:           sorted[0],
		LowerQuartile: lower,
		Median:        median,
		UpperQuartile: upper,
		Max:           sorted[len(sorted)-1],
		Percentile95:  Percentile(sorted, 95),
	}
}

// Summarize computes TypeStats for every strategy, including extinct ones.
func Summarize(s Snapshot) map[agents.Strategy]TypeStats {
	out := make(map[agents.Strategy]TypeStats, len(agents.Strategies))
	for _, strategy := range agents.Strategies {
		out[strategy] = Describe(s.ValuesFor(strategy))
	}
	return out
}

func sortedCopy[T constraints.Ordered](xs []T) []T {
	out := slices.Clone(xs)
	slices.Sort(out)
	return out
}
