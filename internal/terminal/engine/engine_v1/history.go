package engine_v1

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// ExecutionHistory is the append-only record of fills plus an audit log of
// rejected orders, kept in an in-memory DuckDB for the session lifetime.
// Rows are never updated or deleted.
type ExecutionHistory struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewExecutionHistory opens an in-memory database for the session.
func NewExecutionHistory(log *logger.Logger) (*ExecutionHistory, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryInitFailed, "failed to open history database", err)
	}

	return &ExecutionHistory{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the executions and rejections tables.
func (h *ExecutionHistory) Initialize() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			execution_id TEXT PRIMARY KEY,
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			shares DOUBLE,
			price DOUBLE,
			executed_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryInitFailed, "failed to create executions table", err)
	}

	_, err = h.db.Exec(`
		CREATE TABLE IF NOT EXISTS rejections (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			shares DOUBLE,
			trigger_price DOUBLE,
			rejected_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryInitFailed, "failed to create rejections table", err)
	}

	return nil
}

// AppendExecution records one fill.
func (h *ExecutionHistory) AppendExecution(execution types.ExecutedOrder) error {
	insertQuery := h.sq.
		Insert("executions").
		Columns("execution_id", "order_id", "symbol", "side", "kind", "shares", "price", "executed_at").
		Values(
			execution.ExecutionID, execution.OrderID, execution.Symbol, execution.Side,
			execution.Kind, execution.Shares, execution.Price, execution.ExecutedAt,
		).
		RunWith(h.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to insert execution", err)
	}

	return nil
}

// AppendRejection records a failed execution roll for audit.
func (h *ExecutionHistory) AppendRejection(order types.PendingOrder, at time.Time) error {
	insertQuery := h.sq.
		Insert("rejections").
		Columns("order_id", "symbol", "side", "kind", "shares", "trigger_price", "rejected_at").
		Values(order.OrderID, order.Symbol, order.Side, order.Kind, order.Shares, order.TriggerPrice, at).
		RunWith(h.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to insert rejection", err)
	}

	return nil
}

// Executions returns fills matching the filter, oldest first. When a limit
// is set the most recent fills are returned instead, newest first.
func (h *ExecutionHistory) Executions(filter types.TradeFilter) ([]types.ExecutedOrder, error) {
	orderBy := "executed_at ASC, execution_id ASC"
	if filter.Limit > 0 {
		orderBy = "executed_at DESC, execution_id DESC"
	}

	selectQuery := h.sq.
		Select("execution_id", "order_id", "symbol", "side", "kind", "shares", "price", "executed_at").
		From("executions").
		OrderBy(orderBy)

	if filter.Symbol != "" {
		selectQuery = selectQuery.Where(squirrel.Eq{"symbol": filter.Symbol})
	}

	if !filter.StartTime.IsZero() {
		selectQuery = selectQuery.Where(squirrel.GtOrEq{"executed_at": filter.StartTime})
	}

	if !filter.EndTime.IsZero() {
		selectQuery = selectQuery.Where(squirrel.LtOrEq{"executed_at": filter.EndTime})
	}

	if filter.Limit > 0 {
		selectQuery = selectQuery.Limit(uint64(filter.Limit))
	}

	rows, err := selectQuery.RunWith(h.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query executions", err)
	}
	defer rows.Close()

	var executions []types.ExecutedOrder

	for rows.Next() {
		var execution types.ExecutedOrder

		err := rows.Scan(
			&execution.ExecutionID,
			&execution.OrderID,
			&execution.Symbol,
			&execution.Side,
			&execution.Kind,
			&execution.Shares,
			&execution.Price,
			&execution.ExecutedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan execution", err)
		}

		executions = append(executions, execution)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating executions", err)
	}

	return executions, nil
}

// ExecutionByOrderID returns the fill for an order id, if any.
func (h *ExecutionHistory) ExecutionByOrderID(orderID string) (optional.Option[types.ExecutedOrder], error) {
	query := h.sq.
		Select("execution_id", "order_id", "symbol", "side", "kind", "shares", "price", "executed_at").
		From("executions").
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(h.db)

	var execution types.ExecutedOrder

	err := query.QueryRow().Scan(
		&execution.ExecutionID,
		&execution.OrderID,
		&execution.Symbol,
		&execution.Side,
		&execution.Kind,
		&execution.Shares,
		&execution.Price,
		&execution.ExecutedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return optional.None[types.ExecutedOrder](), nil
		}

		return optional.None[types.ExecutedOrder](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to query execution by order id", err)
	}

	return optional.Some(execution), nil
}

// RejectionCount returns the number of audited rejections.
func (h *ExecutionHistory) RejectionCount() (int, error) {
	query := h.sq.
		Select("COUNT(*)").
		From("rejections").
		RunWith(h.db)

	var count int
	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count rejections", err)
	}

	return count, nil
}

// SymbolStats aggregates realized activity per symbol. Realized PnL compares
// sell proceeds against the symbol's average buy price over the session.
func (h *ExecutionHistory) SymbolStats() ([]types.SymbolStats, error) {
	query := `
		WITH per_symbol AS (
			SELECT
				symbol,
				COUNT(*) AS executions,
				SUM(CASE WHEN side = ? THEN shares ELSE 0 END) AS buy_shares,
				SUM(CASE WHEN side = ? THEN shares ELSE 0 END) AS sell_shares,
				SUM(CASE WHEN side = ? THEN shares * price ELSE 0 END) AS buy_amount,
				SUM(CASE WHEN side = ? THEN shares * price ELSE 0 END) AS sell_amount
			FROM executions
			GROUP BY symbol
		)
		SELECT
			symbol,
			executions,
			buy_shares,
			sell_shares,
			buy_amount,
			sell_amount,
			CASE WHEN buy_shares > 0
				THEN sell_amount - sell_shares * (buy_amount / buy_shares)
				ELSE 0
			END AS realized_pnl
		FROM per_symbol
		ORDER BY symbol
	`

	rows, err := h.db.Query(query, types.OrderSideBuy, types.OrderSideSell, types.OrderSideBuy, types.OrderSideSell)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbol stats", err)
	}
	defer rows.Close()

	var stats []types.SymbolStats

	for rows.Next() {
		var entry types.SymbolStats

		err := rows.Scan(
			&entry.Symbol,
			&entry.Executions,
			&entry.BuyShares,
			&entry.SellShares,
			&entry.BuyAmount,
			&entry.SellAmount,
			&entry.RealizedPnL,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol stats", err)
		}

		stats = append(stats, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbol stats", err)
	}

	return stats, nil
}

// Cleanup drops and recreates the tables.
func (h *ExecutionHistory) Cleanup() error {
	_, err := h.db.Exec(`
		DROP TABLE IF EXISTS executions;
		DROP TABLE IF EXISTS rejections;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryInitFailed, "failed to cleanup tables", err)
	}

	return h.Initialize()
}

// Close releases the database.
func (h *ExecutionHistory) Close() error {
	if h.db == nil {
		return nil
	}

	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close history database", zap.Error(err))

		return err
	}

	return nil
}
