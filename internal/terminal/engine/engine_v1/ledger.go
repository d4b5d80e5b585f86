package engine_v1

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/internal/utils"
)

// The ledger invariant: every dollar and every share is in exactly one place
// at any time. A pending BUY holds shares x trigger out of the balance; a
// pending SELL holds the shares out of the position. Fills and cancellations
// move the reservation, never create or destroy value.

// reservedAmount is the cash a pending BUY order holds.
func reservedAmount(order *types.PendingOrder) float64 {
	return utils.MulAmount(order.Shares, order.TriggerPrice)
}

// mergePosition folds a buy lot into the position at the weighted average cost.
func (e *TerminalEngineV1) mergePosition(symbol string, shares, price float64) {
	position, ok := e.positions[symbol]
	if !ok {
		e.positions[symbol] = types.Position{Symbol: symbol, Shares: shares, AvgPrice: price}

		return
	}

	position.AvgPrice = utils.WeightedAverage(position.Shares, position.AvgPrice, shares, price)
	position.Shares += shares
	e.positions[symbol] = position
}

// reducePosition removes shares from a position, deleting it when it reaches
// zero. The caller has already verified the position covers the shares.
func (e *TerminalEngineV1) reducePosition(symbol string, shares float64) {
	position, ok := e.positions[symbol]
	if !ok {
		return
	}

	position.Shares -= shares
	if position.Shares <= 0 {
		delete(e.positions, symbol)

		return
	}

	e.positions[symbol] = position
}

// settlePendingExecution fills a pending order at the given price and moves
// its reservation. A BUY spends the reserved cash and refunds the difference
// between the reservation and the actual cost. A SELL only credits the
// proceeds, because the shares already left the position at submission.
func (e *TerminalEngineV1) settlePendingExecution(order *types.PendingOrder, price float64, at time.Time) (types.ExecutedOrder, error) {
	actual := utils.MulAmount(order.Shares, price)

	switch order.Side {
	case types.OrderSideBuy:
		e.balance += reservedAmount(order) - actual
		e.mergePosition(order.Symbol, order.Shares, price)
	case types.OrderSideSell:
		e.balance += actual
	}

	order.Status = types.OrderStatusExecuted

	execution := types.ExecutedOrder{
		ExecutionID: uuid.New().String(),
		OrderID:     order.OrderID,
		Symbol:      order.Symbol,
		Side:        order.Side,
		Kind:        order.Kind,
		Shares:      order.Shares,
		Price:       price,
		ExecutedAt:  at,
	}

	if err := e.history.AppendExecution(execution); err != nil {
		return types.ExecutedOrder{}, err
	}

	e.log.Info("Order executed",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("shares", order.Shares),
		zap.Float64("price", price))

	return execution, nil
}

// releaseReservation returns a live order's reservation to where it came
// from: cash for a BUY, shares for a SELL. A returned sell lot rejoins the
// existing position without moving its average cost; if the position is gone
// the lot comes back at the order's trigger price as its basis.
func (e *TerminalEngineV1) releaseReservation(order *types.PendingOrder) {
	switch order.Side {
	case types.OrderSideBuy:
		e.balance += reservedAmount(order)
	case types.OrderSideSell:
		position, ok := e.positions[order.Symbol]
		if !ok {
			e.positions[order.Symbol] = types.Position{
				Symbol:   order.Symbol,
				Shares:   order.Shares,
				AvgPrice: order.TriggerPrice,
			}

			return
		}

		position.Shares += order.Shares
		e.positions[order.Symbol] = position
	}
}

// executeImmediate fills a market order straight from the balance or the
// position, with no reservation step in between.
func (e *TerminalEngineV1) executeImmediate(request types.TradeRequest, price float64, at time.Time) (types.ExecutedOrder, error) {
	amount := utils.MulAmount(request.Shares, price)

	switch request.Side {
	case types.OrderSideBuy:
		e.balance -= amount
		e.mergePosition(request.Symbol, request.Shares, price)
	case types.OrderSideSell:
		e.reducePosition(request.Symbol, request.Shares)
		e.balance += amount
	}

	execution := types.ExecutedOrder{
		ExecutionID: uuid.New().String(),
		OrderID:     uuid.New().String(),
		Symbol:      request.Symbol,
		Side:        request.Side,
		Kind:        request.Kind,
		Shares:      request.Shares,
		Price:       price,
		ExecutedAt:  at,
	}

	if err := e.history.AppendExecution(execution); err != nil {
		return types.ExecutedOrder{}, err
	}

	e.log.Info("Market order executed",
		zap.String("symbol", request.Symbol),
		zap.String("side", string(request.Side)),
		zap.Float64("shares", request.Shares),
		zap.Float64("price", price))

	return execution, nil
}
