package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

type GeminiProviderTestSuite struct {
	suite.Suite
	logger   *logger.Logger
	server   *httptest.Server
	response func(w http.ResponseWriter, r *http.Request)
	snapshot InstrumentSnapshot
}

func TestGeminiProviderTestSuite(t *testing.T) {
	suite.Run(t, new(GeminiProviderTestSuite))
}

func (s *GeminiProviderTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)
	s.logger = log

	router := mux.NewRouter()
	router.HandleFunc("/models/{model}:generateContent", func(w http.ResponseWriter, r *http.Request) {
		s.response(w, r)
	}).Methods(http.MethodPost)

	s.server = httptest.NewServer(router)

	s.snapshot = InstrumentSnapshot{
		Symbol:        "NVDA",
		Name:          "NVIDIA Corp.",
		Price:         212.5,
		ChangePercent: 1.8,
	}
}

func (s *GeminiProviderTestSuite) TearDownSuite() {
	s.server.Close()
}

func (s *GeminiProviderTestSuite) newProvider(apiKey string) *GeminiProvider {
	return NewGeminiProvider(apiKey, s.logger, WithBaseURL(s.server.URL))
}

// respondWithText wraps the given text in the generateContent envelope.
func respondWithText(text string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		envelope := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": text},
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelope)
	}
}

func (s *GeminiProviderTestSuite) TestDisabledWithoutKey() {
	provider := s.newProvider("")
	s.False(provider.Enabled())

	_, err := provider.Analyze(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsightUnavailable))

	_, err = provider.FetchNews(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsightUnavailable))
}

func (s *GeminiProviderTestSuite) TestAnalyzeParsesInsight() {
	payload, err := json.Marshal(types.MarketInsight{
		Sentiment:      types.SentimentBullish,
		Summary:        "Momentum remains strong.",
		Recommendation: "Hold through earnings.",
		KeyFactors:     []string{"volume", "guidance", "sector strength"},
	})
	s.Require().NoError(err)

	s.response = respondWithText(string(payload))

	insight, err := s.newProvider("test-key").Analyze(context.Background(), s.snapshot)
	s.Require().NoError(err)
	s.Equal(types.SentimentBullish, insight.Sentiment)
	s.Equal("Hold through earnings.", insight.Recommendation)
	s.Len(insight.KeyFactors, 3)
}

func (s *GeminiProviderTestSuite) TestFetchNewsParsesArticles() {
	payload, err := json.Marshal([]types.NewsArticle{
		{Title: "Chips rally", Source: "Wire", Time: "2h ago", Summary: "Up.", URL: "https://example.com/a"},
		{Title: "Guidance raised", Source: "Desk", Time: "4h ago", Summary: "Strong.", URL: "https://example.com/b"},
	})
	s.Require().NoError(err)

	s.response = respondWithText(string(payload))

	articles, err := s.newProvider("test-key").FetchNews(context.Background(), s.snapshot)
	s.Require().NoError(err)
	s.Require().Len(articles, 2)
	s.Equal("Chips rally", articles[0].Title)
}

func (s *GeminiProviderTestSuite) TestAPIErrorStatus() {
	s.response = func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}

	_, err := s.newProvider("test-key").Analyze(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsightFetchFailed))
}

func (s *GeminiProviderTestSuite) TestMalformedInnerPayload() {
	s.response = respondWithText("not json at all")

	_, err := s.newProvider("test-key").Analyze(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsightParseFailed))
}

func (s *GeminiProviderTestSuite) TestEmptyCandidates() {
	s.response = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}

	_, err := s.newProvider("test-key").Analyze(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsightParseFailed))
}
