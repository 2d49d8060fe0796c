// Package rng provides the single random source threaded through every
// stochastic path in the simulation. Seeding the source makes event
// triggering, talent selection and snobbery checks bit-reproducible.
package rng

import (
	"fmt"
	"math/rand/v2"
)

// Source wraps a seedable PRNG. All draws within one shoot happen in a
// fixed, documented order, so two runs from the same seed are identical.
type Source struct {
	r *rand.Rand
}

// New creates a Source from an explicit seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed))}
}

// Float64 returns a uniform float in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// UniformRange returns a uniform float in [min, max).
func (s *Source) UniformRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.r.Float64()*(max-min)
}

// IntN returns a uniform int in [0, n).
func (s *Source) IntN(n int) int {
	return s.r.IntN(n)
}

// Shuffle shuffles n elements in place.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}

// WeightedIndex selects an index with probability proportional to its
// weight. Weights must be non-negative. If all weights are zero the
// selection is uniform; an empty slice is an error.
func (s *Source) WeightedIndex(weights []float64) (int, error) {
	if len(weights) == 0 {
		return 0, fmt.Errorf("weighted selection over empty set")
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return s.r.IntN(len(weights)), nil
	}
	roll := s.r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}
