// Package engine_v1 is the first implementation of the terminal engine. It
// keeps the portfolio and the pending order queue in memory behind one mutex
// and records every fill in an in-memory DuckDB history.
package engine_v1

import (
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/terminal/engine"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/internal/utils"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// TerminalEngineV1 owns one trading session. Every public method takes the
// engine mutex, so tick passes and user actions never interleave.
type TerminalEngineV1 struct {
	mu sync.Mutex

	config      TerminalEngineV1Config
	log         *logger.Logger
	rng         Rand
	initialized bool

	balance   float64
	positions map[string]types.Position
	// pending holds the live orders keyed by order id, plus REJECTED orders
	// retained for audit until the user dismisses them. Executed and
	// cancelled orders leave the map.
	pending     map[string]*types.PendingOrder
	instruments map[string]*types.Instrument
	// sessionOpen is the first observed price per symbol, the baseline for
	// the displayed change fields.
	sessionOpen  map[string]float64
	history      *ExecutionHistory
	valueHistory []types.ValuePoint
}

// Option configures the engine at construction time.
type Option func(*TerminalEngineV1)

// WithRand overrides the random source used for execution rolls.
func WithRand(rng Rand) Option {
	return func(e *TerminalEngineV1) {
		e.rng = rng
	}
}

// NewTerminalEngineV1 creates an uninitialized engine.
func NewTerminalEngineV1(log *logger.Logger, opts ...Option) engine.TerminalEngine {
	e := &TerminalEngineV1{
		log: log,
		rng: newDefaultRand(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize parses the YAML config and opens the history store.
func (e *TerminalEngineV1) Initialize(config string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	history, err := NewExecutionHistory(e.log)
	if err != nil {
		return err
	}

	if err := history.Initialize(); err != nil {
		return err
	}

	e.config = parsed
	e.history = history
	e.balance = parsed.InitialBalance
	e.positions = make(map[string]types.Position)
	e.pending = make(map[string]*types.PendingOrder)
	e.instruments = make(map[string]*types.Instrument)
	e.sessionOpen = make(map[string]float64)
	e.valueHistory = nil
	e.initialized = true

	e.log.Info("Terminal engine initialized",
		zap.Float64("initial_balance", parsed.InitialBalance),
		zap.Duration("tick_interval", time.Duration(parsed.TickInterval)))

	return nil
}

// SetInstruments installs the tradable universe.
func (e *TerminalEngineV1) SetInstruments(instruments []types.Instrument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return err
	}

	if len(instruments) == 0 {
		return errors.New(errors.ErrCodeInvalidUniverse, "instrument universe is empty")
	}

	for i := range instruments {
		instrument := instruments[i]
		if instrument.Price <= 0 {
			return errors.Newf(errors.ErrCodeInvalidUniverse, "instrument %s has non-positive price %f", instrument.Symbol, instrument.Price)
		}

		e.instruments[instrument.Symbol] = &instrument
		if _, ok := e.sessionOpen[instrument.Symbol]; !ok {
			e.sessionOpen[instrument.Symbol] = instrument.Price
		}
	}

	return nil
}

// Tick applies one price snapshot: quote updates, pending order evaluation,
// and a value history observation, in that order.
func (e *TerminalEngineV1) Tick(prices map[string]float64, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return err
	}

	for symbol, price := range prices {
		instrument, ok := e.instruments[symbol]
		if !ok || price <= 0 {
			continue
		}

		instrument.Price = price

		open := e.sessionOpen[symbol]
		if open > 0 {
			instrument.Change = utils.RoundPrice(price-open, e.config.DecimalPrecision)
			instrument.ChangePercent = (price - open) / open * 100
		}

		instrument.History = append(instrument.History, types.PricePoint{Time: at, Price: price})
		if overflow := len(instrument.History) - e.config.PriceHistorySize; overflow > 0 {
			instrument.History = instrument.History[overflow:]
		}
	}

	if err := e.evaluatePendingOrders(prices, at); err != nil {
		return err
	}

	e.valueHistory = append(e.valueHistory, types.ValuePoint{
		Time:  at,
		Value: totalValue(e.balance, e.positions, e.pending, e.currentPrices()),
	})
	if overflow := len(e.valueHistory) - e.config.ValueHistorySize; overflow > 0 {
		e.valueHistory = e.valueHistory[overflow:]
	}

	return nil
}

// CancelOrder cancels one live pending order and returns its reservation.
func (e *TerminalEngineV1) CancelOrder(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return err
	}

	order, ok := e.pending[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "no pending order with id %s", orderID)
	}

	if order.Status == types.OrderStatusRejected {
		// Dismissal of a rejected order. Its reservation was already
		// released at rejection time, so nothing comes back here.
		delete(e.pending, orderID)

		return nil
	}

	e.releaseReservation(order)
	order.Status = types.OrderStatusCancelled
	delete(e.pending, orderID)

	e.log.Info("Order cancelled",
		zap.String("order_id", orderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)))

	return nil
}

// CancelAllOrders cancels every live pending order.
func (e *TerminalEngineV1) CancelAllOrders() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return err
	}

	for _, id := range e.sortedPendingIDs() {
		order := e.pending[id]
		// Rejected orders are dismissed individually, not mass-cancelled.
		if order.Status == types.OrderStatusRejected {
			continue
		}

		e.releaseReservation(order)
		order.Status = types.OrderStatusCancelled
		delete(e.pending, id)
	}

	return nil
}

// UpdateOrderTrigger changes the trigger price of a live, non-trailing
// conditional order. BUY orders re-reserve the balance delta.
func (e *TerminalEngineV1) UpdateOrderTrigger(orderID string, triggerPrice float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return err
	}

	if triggerPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "trigger price must be positive, got %f", triggerPrice)
	}

	order, ok := e.pending[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "no pending order with id %s", orderID)
	}

	if order.IsTerminal() {
		return errors.Newf(errors.ErrCodeOrderNotEditable, "order %s is already %s", orderID, order.Status)
	}

	if order.Kind == types.OrderKindMarket {
		return errors.New(errors.ErrCodeOrderNotEditable, "market orders have no trigger price to edit")
	}

	if order.Trailing.IsSome() {
		return errors.New(errors.ErrCodeOrderNotEditable, "trailing stop triggers are managed by the engine")
	}

	if order.Side == types.OrderSideBuy {
		delta := utils.MulAmount(order.Shares, triggerPrice) - utils.MulAmount(order.Shares, order.TriggerPrice)
		if delta > e.balance {
			return errors.Newf(errors.ErrCodeInsufficientBalance, "raising the trigger needs %.2f more than the available balance", delta)
		}

		e.balance -= delta
	}

	order.TriggerPrice = triggerPrice

	return nil
}

// Portfolio returns a deep copy of the portfolio state.
func (e *TerminalEngineV1) Portfolio() types.PortfolioSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	positions := make(map[string]types.Position, len(e.positions))
	for symbol, position := range e.positions {
		positions[symbol] = position
	}

	orders := make(map[string]types.PendingOrder, len(e.pending))
	for id, order := range e.pending {
		orders[id] = *order
	}

	return types.PortfolioSnapshot{
		Balance:       e.balance,
		Positions:     positions,
		PendingOrders: orders,
		TakenAt:       time.Now(),
	}
}

// Instruments returns a copy of the universe, sorted by symbol.
func (e *TerminalEngineV1) Instruments() []types.Instrument {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]types.Instrument, 0, len(e.instruments))
	for _, instrument := range e.instruments {
		result = append(result, copyInstrument(instrument))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result
}

// Instrument returns one instrument by symbol.
func (e *TerminalEngineV1) Instrument(symbol string) optional.Option[types.Instrument] {
	e.mu.Lock()
	defer e.mu.Unlock()

	instrument, ok := e.instruments[symbol]
	if !ok {
		return optional.None[types.Instrument]()
	}

	return optional.Some(copyInstrument(instrument))
}

// TotalValue marks the account to market at the latest quotes.
func (e *TerminalEngineV1) TotalValue() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return totalValue(e.balance, e.positions, e.pending, e.currentPrices())
}

// ValueHistory returns the per-tick account value series.
func (e *TerminalEngineV1) ValueHistory() []types.ValuePoint {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]types.ValuePoint, len(e.valueHistory))
	copy(result, e.valueHistory)

	return result
}

// TradeHistory queries the execution history.
func (e *TerminalEngineV1) TradeHistory(filter types.TradeFilter) ([]types.ExecutedOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return nil, err
	}

	return e.history.Executions(filter)
}

// Stats returns realized per-symbol statistics.
func (e *TerminalEngineV1) Stats() ([]types.SymbolStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureInitialized(); err != nil {
		return nil, err
	}

	return e.history.SymbolStats()
}

// Shutdown closes the history store.
func (e *TerminalEngineV1) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	e.initialized = false

	return e.history.Close()
}

func (e *TerminalEngineV1) ensureInitialized() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeEngineNotReady, "engine is not initialized")
	}

	return nil
}

func (e *TerminalEngineV1) currentPrices() map[string]float64 {
	prices := make(map[string]float64, len(e.instruments))
	for symbol, instrument := range e.instruments {
		prices[symbol] = instrument.Price
	}

	return prices
}

// sortedPendingIDs returns the pending order ids in a stable order so tick
// passes visit orders deterministically.
func (e *TerminalEngineV1) sortedPendingIDs() []string {
	ids := make([]string, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

func copyInstrument(instrument *types.Instrument) types.Instrument {
	result := *instrument
	result.History = make([]types.PricePoint, len(instrument.History))
	copy(result.History, instrument.History)

	return result
}
