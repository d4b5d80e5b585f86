// Package market provides the market data feed consumed by the terminal
// engine: the feed interface, the simulated random walk implementation, and
// the instrument universe loader.
package market

// Feed emits a new price per symbol per tick. The engine treats it as an
// opaque external collaborator; implementations must be safe to call once
// per symbol per tick from the driver goroutine.
type Feed interface {
	// NextPrice returns the next price for the symbol given the previous one.
	NextPrice(symbol string, previous float64) float64
}

// FeedFunc adapts a plain function to the Feed interface.
type FeedFunc func(symbol string, previous float64) float64

// NextPrice implements Feed.
func (f FeedFunc) NextPrice(symbol string, previous float64) float64 {
	return f(symbol, previous)
}
