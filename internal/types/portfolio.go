package types

import "time"

// Position represents current holdings of a symbol.
type Position struct {
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// Shares is strictly positive while the position exists; positions that
	// reach zero shares are removed from the portfolio.
	Shares float64 `yaml:"shares" json:"shares" validate:"required,gt=0"`
	// AvgPrice is the weighted average cost basis per share across all buy
	// executions contributing to the current holdings.
	AvgPrice float64 `yaml:"avg_price" json:"avg_price" validate:"gte=0"`
}

// MarketValue returns the position value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Shares * price
}

// UnrealizedPnL returns the gain or loss against the cost basis at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.AvgPrice) * p.Shares
}

// PortfolioSnapshot is a deep copy of the portfolio state taken under the
// engine lock. Readers never observe a partially applied tick.
type PortfolioSnapshot struct {
	Balance       float64                 `yaml:"balance" json:"balance"`
	Positions     map[string]Position     `yaml:"positions" json:"positions"`
	PendingOrders map[string]PendingOrder `yaml:"pending_orders" json:"pending_orders"`
	TakenAt       time.Time               `yaml:"taken_at" json:"taken_at"`
}

// ValuePoint is one observation of total account value over time.
type ValuePoint struct {
	Time  time.Time `yaml:"time" json:"time"`
	Value float64   `yaml:"value" json:"value"`
}

// TradeFilter is used to filter executions when querying trade history.
type TradeFilter struct {
	// Symbol filters executions by symbol (empty string means no filter)
	Symbol string `yaml:"symbol" json:"symbol"`
	// StartTime filters executions after this time (zero time means no filter)
	StartTime time.Time `yaml:"start_time" json:"start_time"`
	// EndTime filters executions before this time (zero time means no filter)
	EndTime time.Time `yaml:"end_time" json:"end_time"`
	// Limit limits the number of executions returned (0 means no limit).
	// When set, the most recent executions are returned, newest first.
	Limit int `yaml:"limit" json:"limit"`
}

// SymbolStats summarizes realized activity for one symbol.
type SymbolStats struct {
	Symbol      string  `yaml:"symbol" json:"symbol"`
	Executions  int     `yaml:"executions" json:"executions"`
	BuyShares   float64 `yaml:"buy_shares" json:"buy_shares"`
	SellShares  float64 `yaml:"sell_shares" json:"sell_shares"`
	BuyAmount   float64 `yaml:"buy_amount" json:"buy_amount"`
	SellAmount  float64 `yaml:"sell_amount" json:"sell_amount"`
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
}
