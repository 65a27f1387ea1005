// Package fuzzdriver generates mutated scenarios from a seed corpus and
// runs them through the engine's lightweight entrypoint, biasing
// numeric parameters toward the thresholds most likely to expose an
// off-by-one or boundary bug rather than sampling uniformly across
// their whole range.
//
// Grounded on the teacher's pkg/fuzz/sampler.go Sampler (triangular and
// log-uniform distributions over a seeded math/rand source), re-scoped
// from "sample chaos fault parameters" to "sample scenario step
// parameters." It never touches pkg/reporting or pkg/trace — only
// Engine.RunLite — since a fuzz round's only output is a pass/fail
// classification, not a replayable artifact.
package fuzzdriver

import (
	"math"
	"math/rand"
)

// Sampler draws parameter values from a seeded source, so an entire
// fuzz session is reproducible from its seed alone.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler seeded deterministically.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// triangular samples a triangular distribution over [lo, hi] peaked at
// mode — biases samples toward mode (typically a known threshold)
// while still occasionally covering the extremes.
func (s *Sampler) triangular(lo, hi, mode float64) float64 {
	if hi <= lo {
		return lo
	}
	u := s.rng.Float64()
	c := (mode - lo) / (hi - lo)
	if u < c {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

// logUniform samples uniformly over the log of [lo, hi], so small and
// large magnitudes are equally likely to be explored — useful for
// budgets that could plausibly span 1 tick or 100,000 ticks.
func (s *Sampler) logUniform(lo, hi float64) int64 {
	if lo <= 0 {
		lo = 1
	}
	if hi <= lo {
		return int64(lo)
	}
	return int64(math.Exp(s.rng.Float64()*(math.Log(hi)-math.Log(lo)) + math.Log(lo)))
}

// coin reports true with probability p.
func (s *Sampler) coin(p float64) bool {
	return s.rng.Float64() < p
}

// pick returns a random element of choices.
func (s *Sampler) pick(choices []int) int {
	return choices[s.rng.Intn(len(choices))]
}
