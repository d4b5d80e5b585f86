// Package insight produces AI commentary and headlines for instruments. The
// provider is a side channel: the trading engine never depends on it and a
// slow or failing provider never touches the tick loop.
package insight

import (
	"context"

	"github.com/nexuslab/nexus-terminal/internal/types"
)

// InstrumentSnapshot is the read-only view of an instrument handed to a
// provider.
type InstrumentSnapshot struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	Price         float64             `json:"price"`
	ChangePercent float64             `json:"changePercent"`
	History       []types.PricePoint  `json:"history,omitempty"`
	Position      *types.Position     `json:"position,omitempty"`
}

// Provider analyzes an instrument and fetches related headlines. Both calls
// honor the context deadline.
type Provider interface {
	Analyze(ctx context.Context, snapshot InstrumentSnapshot) (types.MarketInsight, error)
	FetchNews(ctx context.Context, snapshot InstrumentSnapshot) ([]types.NewsArticle, error)
}
