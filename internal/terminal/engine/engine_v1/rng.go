package engine_v1

import (
	"math/rand"
	"time"
)

// Rand is the randomness source behind the simulated execution failure roll.
// *math/rand.Rand satisfies it; tests supply deterministic sequences.
type Rand interface {
	Float64() float64
}

func newDefaultRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
