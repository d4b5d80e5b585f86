package engine_v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/internal/utils"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// ProposeTrade validates a request against the current portfolio and quotes
// it. Nothing is reserved until the proposal is confirmed.
func (e *TerminalEngineV1) ProposeTrade(request types.TradeRequest) (types.ProposedTrade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return types.ProposedTrade{}, err
	}

	quoted, basis, err := e.quoteRequest(request)
	if err != nil {
		return types.ProposedTrade{}, err
	}

	estimated := utils.MulAmount(request.Shares, basis)

	if err := e.checkCoverage(request, estimated); err != nil {
		return types.ProposedTrade{}, err
	}

	return types.ProposedTrade{
		ProposalID:    uuid.New().String(),
		Request:       request,
		QuotedPrice:   quoted,
		EstimatedCost: estimated,
		CreatedAt:     time.Now(),
	}, nil
}

// ConfirmTrade applies a proposal. The portfolio checks run again at the
// current quote; a proposal the portfolio can no longer satisfy is stale.
// Immediate market orders fill synchronously, everything else is queued with
// its funds or shares reserved.
func (e *TerminalEngineV1) ConfirmTrade(proposal types.ProposedTrade) (types.ConfirmResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return types.ConfirmResult{}, err
	}

	request := proposal.Request

	quoted, basis, err := e.quoteRequest(request)
	if err != nil {
		return types.ConfirmResult{}, err
	}

	cost := utils.MulAmount(request.Shares, basis)

	if err := e.checkCoverage(request, cost); err != nil {
		return types.ConfirmResult{}, errors.Wrap(errors.ErrCodeProposalStale, "portfolio can no longer satisfy the proposal", err)
	}

	now := time.Now()

	// Market orders with no scheduled activation fill right here.
	if request.Kind == types.OrderKindMarket && request.ActivateAt.IsNone() {
		execution, err := e.executeImmediate(request, quoted, now)
		if err != nil {
			return types.ConfirmResult{}, err
		}

		return types.ConfirmResult{Executed: optional.Some(execution)}, nil
	}

	order := &types.PendingOrder{
		OrderID:      uuid.New().String(),
		Symbol:       request.Symbol,
		Side:         request.Side,
		Kind:         request.Kind,
		TriggerPrice: basis,
		Shares:       request.Shares,
		CreatedAt:    now,
		ActivateAt:   request.ActivateAt,
		Status:       types.OrderStatusActive,
	}

	if request.ActivateAt.IsSome() && now.Before(request.ActivateAt.Unwrap()) {
		order.Status = types.OrderStatusQueued
	}

	if request.TrailingMode.IsSome() {
		order.Trailing = optional.Some(types.TrailingConfig{
			Mode:          request.TrailingMode.Unwrap(),
			Offset:        request.TrailingOffset,
			HighWaterMark: quoted,
		})
	}

	switch request.Side {
	case types.OrderSideBuy:
		e.balance -= reservedAmount(order)
	case types.OrderSideSell:
		e.reducePosition(request.Symbol, request.Shares)
	}

	e.pending[order.OrderID] = order

	e.log.Info("Order queued",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("kind", string(order.Kind)),
		zap.Float64("trigger_price", order.TriggerPrice),
		zap.Float64("shares", order.Shares))

	return types.ConfirmResult{Pending: optional.Some(*order)}, nil
}

// quoteRequest validates the request and resolves its quoted price and the
// per-share basis: the quote for market orders, the computed initial stop for
// trailing orders, the explicit trigger for everything else.
func (e *TerminalEngineV1) quoteRequest(request types.TradeRequest) (quoted, basis float64, err error) {
	if err := request.Validate(); err != nil {
		return 0, 0, err
	}

	instrument, ok := e.instruments[request.Symbol]
	if !ok {
		return 0, 0, errors.Newf(errors.ErrCodeInstrumentNotFound, "unknown symbol %s", request.Symbol)
	}

	quoted = instrument.Price

	switch {
	case request.Kind == types.OrderKindMarket:
		basis = quoted
	case request.TrailingMode.IsSome():
		trailing := types.TrailingConfig{
			Mode:          request.TrailingMode.Unwrap(),
			Offset:        request.TrailingOffset,
			HighWaterMark: quoted,
		}

		basis = utils.RoundPrice(trailing.TriggerFrom(quoted), e.config.DecimalPrecision)
		if basis <= 0 {
			return 0, 0, errors.Newf(errors.ErrCodeInvalidOffset, "trailing offset %f puts the stop at or below zero from price %f", request.TrailingOffset, quoted)
		}
	default:
		basis = request.TriggerPrice
	}

	return quoted, basis, nil
}

// checkCoverage verifies the portfolio can fund the trade: cash for a BUY,
// held shares for a SELL.
func (e *TerminalEngineV1) checkCoverage(request types.TradeRequest, cost float64) error {
	switch request.Side {
	case types.OrderSideBuy:
		if cost > e.balance {
			return errors.Newf(errors.ErrCodeInsufficientBalance, "trade needs %.2f but only %.2f is available", cost, e.balance)
		}
	case types.OrderSideSell:
		position, ok := e.positions[request.Symbol]
		if !ok {
			return errors.Newf(errors.ErrCodePositionNotFound, "no position in %s to sell", request.Symbol)
		}

		if request.Shares > position.Shares {
			return errors.Newf(errors.ErrCodeInsufficientShares, "selling %f shares but only %f are held", request.Shares, position.Shares)
		}
	}

	return nil
}
