package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

type OrderSide string

type OrderKind string

type OrderStatus string

type TrailingMode string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderKindMarket   OrderKind = "MARKET"
	OrderKindLimit    OrderKind = "LIMIT"
	OrderKindStopLoss OrderKind = "STOP_LOSS"
)

const (
	// OrderStatusQueued means the scheduled activation time has not been reached yet.
	OrderStatusQueued OrderStatus = "QUEUED"
	// OrderStatusActive means the order is being monitored against the market.
	OrderStatusActive OrderStatus = "ACTIVE"
	// OrderStatusAlert means the current price is within the configured band of the
	// trigger price. Advisory only; it never triggers by itself.
	OrderStatusAlert     OrderStatus = "ALERT"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

const (
	// TrailingModeFixed keeps the stop a fixed dollar amount below the high water mark.
	TrailingModeFixed TrailingMode = "FIXED"
	// TrailingModePercent keeps the stop a percentage below the high water mark.
	TrailingModePercent TrailingMode = "PERCENT"
)

// TrailingConfig holds the trailing stop parameters for a STOP_LOSS order.
type TrailingConfig struct {
	Mode   TrailingMode `yaml:"mode" json:"mode" validate:"required,oneof=FIXED PERCENT"`
	Offset float64      `yaml:"offset" json:"offset" validate:"required,gt=0"`
	// HighWaterMark is the highest price observed since the order was created.
	HighWaterMark float64 `yaml:"high_water_mark" json:"high_water_mark" validate:"gte=0"`
}

// TriggerFrom computes the stop price for the given high water mark.
func (t TrailingConfig) TriggerFrom(high float64) float64 {
	if t.Mode == TrailingModePercent {
		return high * (1 - t.Offset/100)
	}

	return high - t.Offset
}

// PendingOrder is a conditional order waiting in the queue. Mutated in place
// each tick (trailing ratchet, status); identity is stable for its lifetime.
type PendingOrder struct {
	OrderID string    `yaml:"order_id" json:"order_id" validate:"required,uuid"`
	Symbol  string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side    OrderSide `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind    OrderKind `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP_LOSS"`
	// TriggerPrice is the limit target for LIMIT orders and the stop level for
	// STOP_LOSS orders. For a queued MARKET order it holds the price quoted at
	// submission, which is also the amount reserved per share on the BUY side.
	TriggerPrice float64   `yaml:"trigger_price" json:"trigger_price" validate:"required,gt=0"`
	Shares       float64   `yaml:"shares" json:"shares" validate:"required,gt=0"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at" validate:"required"`
	// ActivateAt makes the order inert until the given time.
	ActivateAt optional.Option[time.Time] `yaml:"activate_at" json:"activate_at"`
	Status     OrderStatus                `yaml:"status" json:"status" validate:"required"`
	// Trailing is set only when the stop ratchets with the market.
	Trailing optional.Option[TrailingConfig] `yaml:"trailing" json:"trailing"`
}

// TimeEligible reports whether the order's scheduled activation time has been reached.
func (o *PendingOrder) TimeEligible(now time.Time) bool {
	if o.ActivateAt.IsNone() {
		return true
	}

	at := o.ActivateAt.Unwrap()

	return !now.Before(at)
}

// IsTerminal reports whether the order has reached a terminal status.
func (o *PendingOrder) IsTerminal() bool {
	switch o.Status {
	case OrderStatusExecuted, OrderStatusRejected, OrderStatusCancelled:
		return true
	case OrderStatusQueued, OrderStatusActive, OrderStatusAlert:
		return false
	}

	return false
}

// Validate validates the PendingOrder struct.
func (o *PendingOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid pending order", err)
	}

	if o.Trailing.IsSome() {
		cfg := o.Trailing.Unwrap()
		if err := validate.Struct(cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOffset, "invalid trailing config", err)
		}
	}

	return nil
}

// ExecutedOrder is an immutable record of a fill. Append-only history;
// never mutated or removed.
type ExecutedOrder struct {
	ExecutionID string    `yaml:"execution_id" json:"execution_id" validate:"required,uuid"`
	OrderID     string    `yaml:"order_id" json:"order_id" validate:"required"`
	Symbol      string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side        OrderSide `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind        OrderKind `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP_LOSS"`
	Shares      float64   `yaml:"shares" json:"shares" validate:"required,gt=0"`
	Price       float64   `yaml:"price" json:"price" validate:"required,gt=0"`
	ExecutedAt  time.Time `yaml:"executed_at" json:"executed_at" validate:"required"`
}

// TradeRequest is the user's trade intent before validation.
type TradeRequest struct {
	Symbol string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side   OrderSide `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind   OrderKind `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP_LOSS"`
	Shares float64   `yaml:"shares" json:"shares" validate:"required,gt=0"`
	// TriggerPrice is required for LIMIT and non-trailing STOP_LOSS orders.
	TriggerPrice float64 `yaml:"trigger_price" json:"trigger_price" validate:"gte=0"`
	// TrailingMode turns a STOP_LOSS request into a trailing stop.
	TrailingMode   optional.Option[TrailingMode] `yaml:"trailing_mode" json:"trailing_mode"`
	TrailingOffset float64                       `yaml:"trailing_offset" json:"trailing_offset" validate:"gte=0"`
	// ActivateAt defers activation to a future time.
	ActivateAt optional.Option[time.Time] `yaml:"activate_at" json:"activate_at"`
}

// Validate checks the structural and cross-field rules of a trade request.
// Business checks against the portfolio (balance, held shares) happen at
// proposal time, not here.
func (r *TradeRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTradeRequest, "invalid trade request", err)
	}

	if math.IsNaN(r.Shares) || math.IsInf(r.Shares, 0) {
		return errors.Newf(errors.ErrCodeInvalidQuantity, "share quantity must be finite, got %f", r.Shares)
	}

	if r.Kind == OrderKindStopLoss && r.Side != OrderSideSell {
		return errors.New(errors.ErrCodeInvalidTradeRequest, "stop loss orders must be on the SELL side")
	}

	if r.TrailingMode.IsSome() {
		if r.Kind != OrderKindStopLoss {
			return errors.New(errors.ErrCodeInvalidTradeRequest, "trailing is only supported on STOP_LOSS orders")
		}

		if r.TrailingOffset <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOffset, "trailing offset must be positive, got %f", r.TrailingOffset)
		}

		if r.TrailingMode.Unwrap() == TrailingModePercent && r.TrailingOffset >= 100 {
			return errors.Newf(errors.ErrCodeInvalidOffset, "percent trailing offset must be below 100, got %f", r.TrailingOffset)
		}

		return nil
	}

	// Non-market, non-trailing orders need an explicit trigger price.
	if r.Kind != OrderKindMarket && r.TriggerPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "trigger price must be positive, got %f", r.TriggerPrice)
	}

	return nil
}

// ProposedTrade is a validated trade awaiting user confirmation.
type ProposedTrade struct {
	ProposalID string       `yaml:"proposal_id" json:"proposal_id" validate:"required,uuid"`
	Request    TradeRequest `yaml:"request" json:"request" validate:"required"`
	// QuotedPrice is the instrument price at proposal time.
	QuotedPrice float64 `yaml:"quoted_price" json:"quoted_price" validate:"required,gt=0"`
	// EstimatedCost is shares x trigger price for conditional orders, or
	// shares x quoted price for market orders.
	EstimatedCost float64   `yaml:"estimated_cost" json:"estimated_cost" validate:"required,gt=0"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at" validate:"required"`
}

// ConfirmResult is the outcome of confirming a proposed trade: either an
// immediate execution or a newly queued pending order.
type ConfirmResult struct {
	Executed optional.Option[ExecutedOrder] `yaml:"executed" json:"executed"`
	Pending  optional.Option[PendingOrder]  `yaml:"pending" json:"pending"`
}
