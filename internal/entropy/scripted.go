package entropy

import "fmt"

// Scripted is a Source that replays fixed values. Shuffle leaves the
// order untouched, so scenarios built on it run in declaration order.
// It panics when a script runs dry, which surfaces an unexpected draw.
type Scripted struct {
	Ints   []int
	Floats []float64
}

// Intn returns the next scripted integer, which must lie in [0, n).
func (s *Scripted) Intn(n int) int {
	if len(s.Ints) == 0 {
		panic("entropy: scripted integers exhausted")
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("entropy: scripted integer %d outside [0, %d)", v, n))
	}
	return v
}

// Float returns the next scripted float.
func (s *Scripted) Float() float64 {
	if len(s.Floats) == 0 {
		panic("entropy: scripted floats exhausted")
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// Shuffle is the identity permutation.
func (s *Scripted) Shuffle(int, func(i, j int)) {}
