package market

import (
	"math/rand"
	"time"

	"github.com/nexuslab/nexus-terminal/internal/utils"
)

// DefaultMaxSwing is the maximum fractional price move per tick.
const DefaultMaxSwing = 0.005

// Rand is the randomness source for the simulated feed. *math/rand.Rand
// satisfies it; tests supply fixed sequences.
type Rand interface {
	Float64() float64
}

// SimulatedFeed is a synthetic random walk: each tick the price moves by a
// uniform factor in [-maxSwing/2, +maxSwing/2] and is rounded to cents.
type SimulatedFeed struct {
	rng      Rand
	maxSwing float64
}

// SimulatedFeedOption configures a SimulatedFeed.
type SimulatedFeedOption func(*SimulatedFeed)

// WithRand overrides the randomness source.
func WithRand(rng Rand) SimulatedFeedOption {
	return func(f *SimulatedFeed) {
		f.rng = rng
	}
}

// WithMaxSwing overrides the maximum per-tick price move.
func WithMaxSwing(maxSwing float64) SimulatedFeedOption {
	return func(f *SimulatedFeed) {
		f.maxSwing = maxSwing
	}
}

// NewSimulatedFeed creates a random walk feed seeded from the clock.
func NewSimulatedFeed(opts ...SimulatedFeedOption) *SimulatedFeed {
	feed := &SimulatedFeed{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		maxSwing: DefaultMaxSwing,
	}

	for _, opt := range opts {
		opt(feed)
	}

	return feed
}

// NextPrice implements Feed.
func (f *SimulatedFeed) NextPrice(_ string, previous float64) float64 {
	if previous <= 0 {
		return previous
	}

	changeFactor := 1 + (f.rng.Float64()-0.5)*f.maxSwing

	next := utils.RoundPrice(previous*changeFactor, 2)
	if next <= 0 {
		// A rounded walk step can touch zero only for sub-cent prices; hold.
		return previous
	}

	return next
}
