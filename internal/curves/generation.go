// Synthetic demand and availability curves from layered simplex noise.
// Used when a run is not given measured curves: each cohort gets a smooth,
// strictly positive demand profile over the day, and availability is a
// profile discretized to exactly the capacity the population needs.
package curves

import (
	"fmt"
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/slot-exchange/internal/config"
)

// GenConfig holds curve generation parameters.
type GenConfig struct {
	Slots     int     // Number of time slots in the day
	Cohorts   int     // Number of demand curves
	Octaves   int     // Noise layers summed per curve
	Frequency float64 // Base noise frequency per slot
	Seed      int64
}

// floor keeps every demand weight positive so every slot stays requestable.
const floor = 0.05

// Profile returns one smooth profile of length cfg.Slots with values in
// [floor, 1]. Each layer doubles the frequency and halves the amplitude.
func Profile(cfg GenConfig, layer int64) []float64 {
	noise := opensimplex.NewNormalized(cfg.Seed + layer)
	octaves := cfg.Octaves
	if octaves < 1 {
		octaves = 1
	}

	out := make([]float64, cfg.Slots)
	for i := range out {
		value := 0.0
		amplitude := 1.0
		frequency := cfg.Frequency
		norm := 0.0
		for o := 0; o < octaves; o++ {
			value += amplitude * noise.Eval2(float64(i)*frequency, float64(layer)*7.31)
			norm += amplitude
			amplitude *= 0.5
			frequency *= 2
		}
		out[i] = math.Max(floor, value/norm)
	}
	return out
}

// Demand generates cfg.Cohorts named demand curves.
func Demand(cfg GenConfig) []config.Cohort {
	cohorts := make([]config.Cohort, cfg.Cohorts)
	for c := range cohorts {
		cohorts[c] = config.Cohort{
			Name:   fmt.Sprintf("synthetic-%d", c+1),
			Demand: Profile(cfg, int64(c)+1),
		}
	}
	return cohorts
}

// Availability generates a capacity profile holding exactly total tokens.
func Availability(cfg GenConfig, total int) []int {
	return Discretize(Profile(cfg, 0), total)
}

// Discretize converts nonnegative weights into integer capacities that sum
// to exactly total, by the largest-remainder method. Ties in remainder go
// to the earlier slot. All-zero weights are spread evenly.
func Discretize(weights []float64, total int) []int {
	n := len(weights)
	out := make([]int, n)
	if n == 0 || total <= 0 {
		return out
	}

	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		for i := range out {
			out[i] = total / n
			if i < total%n {
				out[i]++
			}
		}
		return out
	}

	type remainder struct {
		index int
		frac  float64
	}
	rems := make([]remainder, n)
	assigned := 0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		exact := w / sum * float64(total)
		out[i] = int(math.Floor(exact))
		assigned += out[i]
		rems[i] = remainder{index: i, frac: exact - float64(out[i])}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; assigned < total; k++ {
		out[rems[k%n].index]++
		assigned++
	}
	return out
}

// Fill supplies generated curves for whatever cfg leaves unset. Explicit
// curves are kept as given.
func Fill(cfg *config.Config) {
	gen := GenConfig{
		Slots:     cfg.UniqueTimeSlots,
		Cohorts:   cfg.Synthetic.Cohorts,
		Octaves:   cfg.Synthetic.Octaves,
		Frequency: cfg.Synthetic.Frequency,
		Seed:      cfg.Seed + 500,
	}
	if gen.Cohorts < 1 {
		gen.Cohorts = 1
	}
	if gen.Frequency <= 0 {
		gen.Frequency = 0.15
	}

	if len(cfg.Cohorts) == 0 {
		cfg.Cohorts = Demand(gen)
	}
	if len(cfg.Availability) == 0 {
		cfg.Availability = Availability(gen, cfg.Population*cfg.SlotsPerAgent)
	}
}
