package bootstrap

import (
	"errors"
	"math/rand/v2"
)

// ErrInvalidInput is the single category for all resampling precondition violations.
var ErrInvalidInput = errors.New("invalid resampling input")

// Random is the source of every draw made by the resampler.
// *rand.Rand from math/rand/v2 satisfies it. Implementations need not be safe for concurrent use.
type Random interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRandom returns a reproducible PCG-backed generator. Distinct streams with the
// same seed give independent sequences, one per replicate.
func NewRandom(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// redraw is a Bernoulli trial: true with probability prob.
func redraw(rng Random, prob float64) bool {
	return rng.Float64() < prob
}
