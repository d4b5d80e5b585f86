package engine_v1

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexuslab/nexus-terminal/internal/types"
)

func TestTotalValue(t *testing.T) {
	prices := map[string]float64{"AAPL": 52, "NVDA": 210}

	tests := []struct {
		name      string
		balance   float64
		positions map[string]types.Position
		pending   map[string]*types.PendingOrder
		want      float64
	}{
		{
			name:    "cash only",
			balance: 100000,
			want:    100000,
		},
		{
			name:    "positions marked at current price",
			balance: 1000,
			positions: map[string]types.Position{
				"AAPL": {Symbol: "AAPL", Shares: 10, AvgPrice: 50},
			},
			want: 1520,
		},
		{
			name:    "position without a quote contributes nothing",
			balance: 300,
			positions: map[string]types.Position{
				"GONE": {Symbol: "GONE", Shares: 4, AvgPrice: 25},
			},
			want: 300,
		},
		{
			name:    "pending buy valued at its reservation",
			balance: 550,
			pending: map[string]*types.PendingOrder{
				"a": {OrderID: "a", Symbol: "AAPL", Side: types.OrderSideBuy, Kind: types.OrderKindLimit, TriggerPrice: 45, Shares: 10, Status: types.OrderStatusActive},
			},
			want: 1000,
		},
		{
			name:    "pending sell valued at the current price",
			balance: 0,
			pending: map[string]*types.PendingOrder{
				"a": {OrderID: "a", Symbol: "NVDA", Side: types.OrderSideSell, Kind: types.OrderKindStopLoss, TriggerPrice: 190, Shares: 10, Status: types.OrderStatusAlert},
			},
			want: 2100,
		},
		{
			name:    "pending sell without a quote falls back to its trigger",
			balance: 0,
			pending: map[string]*types.PendingOrder{
				"a": {OrderID: "a", Symbol: "GONE", Side: types.OrderSideSell, Kind: types.OrderKindLimit, TriggerPrice: 30, Shares: 2, Status: types.OrderStatusActive},
			},
			want: 60,
		},
		{
			name:    "terminal orders contribute nothing",
			balance: 500,
			pending: map[string]*types.PendingOrder{
				"a": {OrderID: "a", Symbol: "AAPL", Side: types.OrderSideBuy, Kind: types.OrderKindLimit, TriggerPrice: 45, Shares: 10, Status: types.OrderStatusRejected},
				"b": {OrderID: "b", Symbol: "NVDA", Side: types.OrderSideSell, Kind: types.OrderKindLimit, TriggerPrice: 220, Shares: 5, Status: types.OrderStatusCancelled},
				"c": {OrderID: "c", Symbol: "AAPL", Side: types.OrderSideBuy, Kind: types.OrderKindMarket, TriggerPrice: 50, Shares: 1, Status: types.OrderStatusExecuted},
			},
			want: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := totalValue(tt.balance, tt.positions, tt.pending, prices)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
