package engine_v1

import (
	"github.com/shopspring/decimal"

	"github.com/nexuslab/nexus-terminal/internal/types"
)

// totalValue marks the whole account to market: cash, held positions at the
// current price, plus the capital locked in pending orders. A position whose
// symbol has no quote contributes nothing. A pending BUY is valued at its
// reservation (shares x trigger). A pending SELL is valued at the current
// price of its symbol, falling back to the trigger when the symbol has no
// quote, because those shares already left the position at submission.
// Terminal orders contribute nothing.
func totalValue(balance float64, positions map[string]types.Position, pending map[string]*types.PendingOrder, prices map[string]float64) float64 {
	total := decimal.NewFromFloat(balance)

	for symbol, position := range positions {
		price, ok := prices[symbol]
		if !ok {
			continue
		}

		total = total.Add(decimal.NewFromFloat(position.Shares).Mul(decimal.NewFromFloat(price)))
	}

	for _, order := range pending {
		if order.IsTerminal() {
			continue
		}

		switch order.Side {
		case types.OrderSideBuy:
			total = total.Add(decimal.NewFromFloat(order.Shares).Mul(decimal.NewFromFloat(order.TriggerPrice)))
		case types.OrderSideSell:
			price, ok := prices[order.Symbol]
			if !ok || price <= 0 {
				price = order.TriggerPrice
			}

			total = total.Add(decimal.NewFromFloat(order.Shares).Mul(decimal.NewFromFloat(price)))
		}
	}

	result, _ := total.Float64()

	return result
}
