package types

import "time"

// PricePoint is a single observation in an instrument's rolling price history.
type PricePoint struct {
	Time  time.Time `yaml:"time" json:"time"`
	Price float64   `yaml:"price" json:"price"`
}

// Instrument is a tradable symbol with its latest quote. The price is
// replaced wholesale on every tick; the engine treats it as read-only input.
type Instrument struct {
	Symbol        string  `yaml:"symbol" json:"symbol" validate:"required"`
	Name          string  `yaml:"name" json:"name" validate:"required"`
	Price         float64 `yaml:"price" json:"price" validate:"required,gt=0"`
	Change        float64 `yaml:"change" json:"change"`
	ChangePercent float64 `yaml:"change_percent" json:"change_percent"`
	// Volume and MarketCap are display strings from the universe file ("42M", "3.2T").
	Volume    string       `yaml:"volume" json:"volume"`
	MarketCap string       `yaml:"market_cap" json:"market_cap"`
	History   []PricePoint `yaml:"history,omitempty" json:"history,omitempty"`
}
