package types

type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// MarketInsight is the AI commentary for a single instrument.
type MarketInsight struct {
	Sentiment      Sentiment `json:"sentiment"`
	Summary        string    `json:"summary"`
	Recommendation string    `json:"recommendation"`
	KeyFactors     []string  `json:"keyFactors"`
}

// NewsArticle is one headline returned by the news collaborator.
type NewsArticle struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Time    string `json:"time"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}
