// Package engine defines the terminal engine interface: the single owner of
// the portfolio that serializes tick evaluation and user actions.
package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/nexuslab/nexus-terminal/internal/types"
)

// TerminalEngine owns the portfolio, the pending order queue, and the
// execution history for one trading session. All methods are safe for
// concurrent use; user actions and tick passes are serialized internally.
type TerminalEngine interface {
	// Initialize parses the engine YAML config and prepares the execution
	// history store. Must be called before anything else.
	Initialize(config string) error
	// SetInstruments installs the tradable universe. Prices are the
	// starting quotes; subsequent ticks replace them.
	SetInstruments(instruments []types.Instrument) error

	// Tick runs one evaluation pass against the given price snapshot: trailing
	// updates, status reclassification, trigger tests, execution rolls, and
	// ledger application, all against this one consistent set of prices.
	// Ticks never overlap; a concurrent call waits for the previous pass.
	Tick(prices map[string]float64, at time.Time) error

	// ProposeTrade validates a trade request against the current portfolio and
	// returns a proposal for confirmation. No state is changed.
	ProposeTrade(request types.TradeRequest) (types.ProposedTrade, error)
	// ConfirmTrade applies a proposal: immediate market orders execute
	// synchronously, everything else becomes a pending order with its
	// funds or shares reserved.
	ConfirmTrade(proposal types.ProposedTrade) (types.ConfirmResult, error)
	// CancelOrder cancels a pending order and returns its reservation.
	CancelOrder(orderID string) error
	// CancelAllOrders cancels every pending order.
	CancelAllOrders() error
	// UpdateOrderTrigger changes the trigger price of a non-trailing pending
	// order, re-reserving the balance delta for BUY orders.
	UpdateOrderTrigger(orderID string, triggerPrice float64) error

	// Portfolio returns a consistent deep copy of the portfolio state.
	Portfolio() types.PortfolioSnapshot
	// Instruments returns a copy of the current instrument set with rolling
	// price history.
	Instruments() []types.Instrument
	// Instrument returns the instrument for a symbol, if tracked.
	Instrument(symbol string) optional.Option[types.Instrument]
	// TotalValue returns the mark to market account value: balance, position
	// value, and capital reserved by pending orders.
	TotalValue() float64
	// ValueHistory returns the per-tick series of total account value.
	ValueHistory() []types.ValuePoint

	// TradeHistory queries the append-only execution history.
	TradeHistory(filter types.TradeFilter) ([]types.ExecutedOrder, error)
	// Stats returns realized per-symbol statistics from the history.
	Stats() ([]types.SymbolStats, error)

	// Shutdown releases the history store. The engine is unusable afterwards.
	Shutdown() error
}
