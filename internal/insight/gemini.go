package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultHTTPTimeout   = 30 * time.Second
)

const analysisInstruction = `You are a market analyst for a trading terminal.
Given an instrument snapshot, respond with a JSON object with the fields
"sentiment" (one of "Bullish", "Bearish", "Neutral"), "summary" (two
sentences), "recommendation" (one sentence), and "keyFactors" (three short
strings).`

const newsInstruction = `You are a financial news desk. Given an instrument
snapshot, respond with a JSON array of 3 objects with the fields "title",
"source", "time", "summary", and "url" describing plausible recent headlines
for the instrument.`

// GeminiProvider talks to the Gemini REST API. With no API key it is
// disabled and every call returns ErrCodeInsightUnavailable, so the terminal
// runs fine without credentials.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logger.Logger
}

// GeminiOption configures the provider.
type GeminiOption func(*GeminiProvider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) GeminiOption {
	return func(p *GeminiProvider) {
		p.baseURL = baseURL
	}
}

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(p *GeminiProvider) {
		p.model = model
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(p *GeminiProvider) {
		p.httpClient = client
	}
}

// NewGeminiProvider creates a provider. An empty apiKey yields a disabled
// provider rather than an error.
func NewGeminiProvider(apiKey string, log *logger.Logger, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		model:      defaultGeminiModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		log:        log,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		log.Warn("No Gemini API key configured, insight features are disabled")
	}

	return p
}

// Enabled reports whether the provider has credentials.
func (p *GeminiProvider) Enabled() bool {
	return p.apiKey != ""
}

// Analyze returns AI commentary for the instrument.
func (p *GeminiProvider) Analyze(ctx context.Context, snapshot InstrumentSnapshot) (types.MarketInsight, error) {
	var insight types.MarketInsight

	text, err := p.generate(ctx, analysisInstruction, snapshot)
	if err != nil {
		return insight, err
	}

	if err := json.Unmarshal([]byte(text), &insight); err != nil {
		return insight, errors.Wrap(errors.ErrCodeInsightParseFailed, "failed to parse analysis response", err)
	}

	return insight, nil
}

// FetchNews returns headlines for the instrument.
func (p *GeminiProvider) FetchNews(ctx context.Context, snapshot InstrumentSnapshot) ([]types.NewsArticle, error) {
	text, err := p.generate(ctx, newsInstruction, snapshot)
	if err != nil {
		return nil, err
	}

	var articles []types.NewsArticle
	if err := json.Unmarshal([]byte(text), &articles); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInsightParseFailed, "failed to parse news response", err)
	}

	return articles, nil
}

// generate posts one generateContent request and extracts the text of the
// first candidate.
func (p *GeminiProvider) generate(ctx context.Context, instruction string, snapshot InstrumentSnapshot) (string, error) {
	if !p.Enabled() {
		return "", errors.New(errors.ErrCodeInsightUnavailable, "insight provider has no API key")
	}

	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInsightFetchFailed, "failed to encode snapshot", err)
	}

	payload := map[string]any{
		"system_instruction": map[string]any{
			"parts": map[string]any{
				"text": instruction,
			},
		},
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": fmt.Sprintf("Instrument snapshot: %s", string(snapJSON))},
				},
			},
		},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInsightFetchFailed, "failed to encode request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInsightFetchFailed, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInsightFetchFailed, "insight request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)

		p.log.Warn("Insight API returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)))

		return "", errors.Newf(errors.ErrCodeInsightFetchFailed, "insight API returned status %d", resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(errors.ErrCodeInsightParseFailed, "failed to decode response envelope", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeInsightParseFailed, "response has no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
