package insight

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// DefaultRequestTimeout bounds one provider call.
const DefaultRequestTimeout = 45 * time.Second

// Dispatcher runs provider calls in the background and caches the latest
// result per symbol. Requests are fire and forget: a symbol with a request
// already in flight is not asked again, and callers read whatever result is
// cached, possibly none.
type Dispatcher struct {
	mu       sync.Mutex
	provider Provider
	log      *logger.Logger
	timeout  time.Duration

	insights map[string]types.MarketInsight
	news     map[string][]types.NewsArticle
	inFlight map[string]bool
}

// NewDispatcher creates a dispatcher over the given provider.
func NewDispatcher(provider Provider, log *logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Dispatcher{
		provider: provider,
		log:      log,
		timeout:  timeout,
		insights: make(map[string]types.MarketInsight),
		news:     make(map[string][]types.NewsArticle),
		inFlight: make(map[string]bool),
	}
}

// Request starts a background fetch for the symbol unless one is already
// running. It returns immediately.
func (d *Dispatcher) Request(snapshot InstrumentSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inFlight[snapshot.Symbol] {
		return
	}

	d.inFlight[snapshot.Symbol] = true

	go d.fetch(snapshot)
}

// Insight returns the latest cached commentary for the symbol.
func (d *Dispatcher) Insight(symbol string) optional.Option[types.MarketInsight] {
	d.mu.Lock()
	defer d.mu.Unlock()

	insight, ok := d.insights[symbol]
	if !ok {
		return optional.None[types.MarketInsight]()
	}

	return optional.Some(insight)
}

// News returns the latest cached headlines for the symbol.
func (d *Dispatcher) News(symbol string) []types.NewsArticle {
	d.mu.Lock()
	defer d.mu.Unlock()

	articles := d.news[symbol]
	result := make([]types.NewsArticle, len(articles))
	copy(result, articles)

	return result
}

func (d *Dispatcher) fetch(snapshot InstrumentSnapshot) {
	defer func() {
		d.mu.Lock()
		delete(d.inFlight, snapshot.Symbol)
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	insight, err := d.provider.Analyze(ctx, snapshot)
	if err != nil {
		// A disabled provider is the normal no-key case, not worth logging
		// on every request.
		if !errors.HasCode(err, errors.ErrCodeInsightUnavailable) {
			d.log.Warn("Insight analysis failed",
				zap.String("symbol", snapshot.Symbol),
				zap.Error(err))
		}

		return
	}

	articles, err := d.provider.FetchNews(ctx, snapshot)
	if err != nil {
		d.log.Warn("News fetch failed",
			zap.String("symbol", snapshot.Symbol),
			zap.Error(err))
	}

	d.mu.Lock()
	d.insights[snapshot.Symbol] = insight
	if err == nil {
		d.news[snapshot.Symbol] = articles
	}
	d.mu.Unlock()
}
