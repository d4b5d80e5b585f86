package engine_v1

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/internal/utils"
)

// evaluatePendingOrders runs one pass over the live orders against a single
// price snapshot. Per order: activation gate, trailing ratchet, trigger test,
// execution roll, settlement. Caller holds the engine mutex.
func (e *TerminalEngineV1) evaluatePendingOrders(prices map[string]float64, at time.Time) error {
	for _, id := range e.sortedPendingIDs() {
		order := e.pending[id]
		if order.IsTerminal() {
			continue
		}

		price, ok := prices[order.Symbol]
		if !ok || price <= 0 {
			continue
		}

		if order.Status == types.OrderStatusQueued {
			if !order.TimeEligible(at) {
				continue
			}

			order.Status = types.OrderStatusActive
		}

		e.ratchetTrailing(order, price)

		if !shouldTrigger(order, price) {
			e.reclassifyAlert(order, price)

			continue
		}

		if e.config.RejectionProbability > 0 && e.rng.Float64() < e.config.RejectionProbability {
			if err := e.rejectOrder(order, at); err != nil {
				return err
			}

			continue
		}

		if _, err := e.settlePendingExecution(order, price, at); err != nil {
			return err
		}

		delete(e.pending, id)
	}

	return nil
}

// ratchetTrailing raises a trailing stop when the price sets a new high
// water mark. The trigger only ever moves up.
func (e *TerminalEngineV1) ratchetTrailing(order *types.PendingOrder, price float64) {
	if order.Trailing.IsNone() {
		return
	}

	cfg := order.Trailing.Unwrap()
	if price <= cfg.HighWaterMark {
		return
	}

	cfg.HighWaterMark = price

	trigger := utils.RoundPrice(cfg.TriggerFrom(price), e.config.DecimalPrecision)
	if trigger > order.TriggerPrice {
		order.TriggerPrice = trigger
	}

	order.Trailing = optional.Some(cfg)
}

// shouldTrigger tests the order's condition against the current price. All
// comparisons are inclusive at the trigger.
func shouldTrigger(order *types.PendingOrder, price float64) bool {
	switch order.Kind {
	case types.OrderKindMarket:
		// A queued market order fires as soon as it is active.
		return true
	case types.OrderKindLimit:
		if order.Side == types.OrderSideBuy {
			return price <= order.TriggerPrice
		}

		return price >= order.TriggerPrice
	case types.OrderKindStopLoss:
		return price <= order.TriggerPrice
	}

	return false
}

// reclassifyAlert flips a live order between ACTIVE and ALERT depending on
// how close the price is to the trigger. ALERT is advisory; the trigger test
// above is the only thing that fires an order.
func (e *TerminalEngineV1) reclassifyAlert(order *types.PendingOrder, price float64) {
	if order.Kind == types.OrderKindMarket || order.TriggerPrice <= 0 {
		return
	}

	distance := math.Abs(price-order.TriggerPrice) / order.TriggerPrice
	if distance <= e.config.AlertBand {
		order.Status = types.OrderStatusAlert

		return
	}

	order.Status = types.OrderStatusActive
}

// rejectOrder marks an order rejected, releases its reservation, and writes
// the audit row.
func (e *TerminalEngineV1) rejectOrder(order *types.PendingOrder, at time.Time) error {
	order.Status = types.OrderStatusRejected
	e.releaseReservation(order)

	e.log.Warn("Order rejected at execution",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)))

	return e.history.AppendRejection(*order, at)
}
