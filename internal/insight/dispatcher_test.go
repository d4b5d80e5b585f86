package insight

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// stubProvider returns canned results and counts calls. release, when set,
// blocks Analyze until closed.
type stubProvider struct {
	insight    types.MarketInsight
	news       []types.NewsArticle
	analyzeErr error
	newsErr    error
	calls      atomic.Int64
	release    chan struct{}
}

func (p *stubProvider) Analyze(ctx context.Context, _ InstrumentSnapshot) (types.MarketInsight, error) {
	p.calls.Add(1)

	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return types.MarketInsight{}, ctx.Err()
		}
	}

	return p.insight, p.analyzeErr
}

func (p *stubProvider) FetchNews(context.Context, InstrumentSnapshot) ([]types.NewsArticle, error) {
	return p.news, p.newsErr
}

func newTestLogger(t *testing.T) *logger.Logger {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	return log
}

func TestDispatcherCachesLatestResult(t *testing.T) {
	provider := &stubProvider{
		insight: types.MarketInsight{Sentiment: types.SentimentNeutral, Summary: "Flat."},
		news:    []types.NewsArticle{{Title: "Quiet day"}},
	}
	dispatcher := NewDispatcher(provider, newTestLogger(t), time.Second)

	snapshot := InstrumentSnapshot{Symbol: "AAPL", Name: "Apple Inc.", Price: 50}

	assert.True(t, dispatcher.Insight("AAPL").IsNone())
	assert.Empty(t, dispatcher.News("AAPL"))

	dispatcher.Request(snapshot)

	assert.Eventually(t, func() bool {
		return dispatcher.Insight("AAPL").IsSome()
	}, time.Second, 10*time.Millisecond)

	insight := dispatcher.Insight("AAPL").Unwrap()
	assert.Equal(t, types.SentimentNeutral, insight.Sentiment)
	assert.Len(t, dispatcher.News("AAPL"), 1)
}

func TestDispatcherDeduplicatesInFlightRequests(t *testing.T) {
	provider := &stubProvider{release: make(chan struct{})}
	dispatcher := NewDispatcher(provider, newTestLogger(t), time.Second)

	snapshot := InstrumentSnapshot{Symbol: "NVDA", Name: "NVIDIA Corp.", Price: 200}

	dispatcher.Request(snapshot)
	dispatcher.Request(snapshot)
	dispatcher.Request(snapshot)

	close(provider.release)

	assert.Eventually(t, func() bool {
		return dispatcher.Insight("NVDA").IsSome()
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), provider.calls.Load())

	// The in-flight slot is released after completion, so a new request runs.
	assert.Eventually(t, func() bool {
		dispatcher.Request(snapshot)

		return provider.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcherFailureLeavesCacheAbsent(t *testing.T) {
	provider := &stubProvider{
		analyzeErr: errors.New(errors.ErrCodeInsightFetchFailed, "boom"),
	}
	dispatcher := NewDispatcher(provider, newTestLogger(t), time.Second)

	dispatcher.Request(InstrumentSnapshot{Symbol: "TSLA", Name: "Tesla Inc.", Price: 100})

	assert.Eventually(t, func() bool {
		return provider.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, dispatcher.Insight("TSLA").IsNone())
	assert.Empty(t, dispatcher.News("TSLA"))
}

func TestDispatcherKeepsInsightWhenNewsFails(t *testing.T) {
	provider := &stubProvider{
		insight: types.MarketInsight{Sentiment: types.SentimentBearish},
		newsErr: errors.New(errors.ErrCodeInsightFetchFailed, "boom"),
	}
	dispatcher := NewDispatcher(provider, newTestLogger(t), time.Second)

	dispatcher.Request(InstrumentSnapshot{Symbol: "AMD", Name: "AMD Inc.", Price: 150})

	assert.Eventually(t, func() bool {
		return dispatcher.Insight("AMD").IsSome()
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, types.SentimentBearish, dispatcher.Insight("AMD").Unwrap().Sentiment)
	assert.Empty(t, dispatcher.News("AMD"))
}
