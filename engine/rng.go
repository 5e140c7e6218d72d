package engine

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw, so save/load can reproduce the
// exact roll sequence.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	r.pos++
	return r.src.Intn(sides) + 1
}

// Percent reports success for a chance expressed in whole percent.
// Percent(60) succeeds 60% of the time; 100 always, 0 never.
func (r *RNG) Percent(chance int) bool {
	return r.Roll(100) <= chance
}

// Variance returns a bounded damage variance in [-spread, +spread].
func (r *RNG) Variance(spread int) int {
	if spread <= 0 {
		return 0
	}
	return r.Roll(2*spread+1) - spread - 1
}

// Seed returns the seed this RNG was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position,
// reproducing the exact stream state recorded in a save.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
