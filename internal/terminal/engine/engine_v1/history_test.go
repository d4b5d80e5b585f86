package engine_v1

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/types"
)

type ExecutionHistoryTestSuite struct {
	suite.Suite
	logger  *logger.Logger
	history *ExecutionHistory
	base    time.Time
}

func TestExecutionHistoryTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutionHistoryTestSuite))
}

func (s *ExecutionHistoryTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)
	s.logger = log

	history, err := NewExecutionHistory(log)
	s.Require().NoError(err)
	s.history = history

	s.Require().NoError(s.history.Initialize())

	s.base = time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
}

func (s *ExecutionHistoryTestSuite) TearDownSuite() {
	s.Require().NoError(s.history.Close())
}

func (s *ExecutionHistoryTestSuite) SetupTest() {
	s.Require().NoError(s.history.Cleanup())
}

func (s *ExecutionHistoryTestSuite) execution(symbol string, side types.OrderSide, shares, price float64, at time.Time) types.ExecutedOrder {
	return types.ExecutedOrder{
		ExecutionID: uuid.New().String(),
		OrderID:     uuid.New().String(),
		Symbol:      symbol,
		Side:        side,
		Kind:        types.OrderKindMarket,
		Shares:      shares,
		Price:       price,
		ExecutedAt:  at,
	}
}

func (s *ExecutionHistoryTestSuite) TestAppendAndQueryOrdering() {
	later := s.execution("AAPL", types.OrderSideBuy, 5, 51, s.base.Add(time.Minute))
	earlier := s.execution("AAPL", types.OrderSideBuy, 10, 50, s.base)

	s.Require().NoError(s.history.AppendExecution(later))
	s.Require().NoError(s.history.AppendExecution(earlier))

	executions, err := s.history.Executions(types.TradeFilter{})
	s.Require().NoError(err)
	s.Require().Len(executions, 2)
	s.Equal(earlier.ExecutionID, executions[0].ExecutionID)
	s.Equal(later.ExecutionID, executions[1].ExecutionID)
}

func (s *ExecutionHistoryTestSuite) TestQueryFilters() {
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideBuy, 10, 50, s.base)))
	s.Require().NoError(s.history.AppendExecution(s.execution("NVDA", types.OrderSideBuy, 5, 200, s.base.Add(time.Minute))))
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideSell, 10, 55, s.base.Add(2*time.Minute))))

	bySymbol, err := s.history.Executions(types.TradeFilter{Symbol: "AAPL"})
	s.Require().NoError(err)
	s.Len(bySymbol, 2)

	byWindow, err := s.history.Executions(types.TradeFilter{
		StartTime: s.base.Add(30 * time.Second),
		EndTime:   s.base.Add(90 * time.Second),
	})
	s.Require().NoError(err)
	s.Require().Len(byWindow, 1)
	s.Equal("NVDA", byWindow[0].Symbol)

	// A limit returns the most recent fills, newest first.
	limited, err := s.history.Executions(types.TradeFilter{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal("AAPL", limited[0].Symbol)
	s.Equal(types.OrderSideSell, limited[0].Side)
	s.Equal("NVDA", limited[1].Symbol)
}

func (s *ExecutionHistoryTestSuite) TestExecutionByOrderID() {
	execution := s.execution("TSLA", types.OrderSideBuy, 3, 240, s.base)
	s.Require().NoError(s.history.AppendExecution(execution))

	found, err := s.history.ExecutionByOrderID(execution.OrderID)
	s.Require().NoError(err)
	s.Require().True(found.IsSome())
	s.Equal(execution.ExecutionID, found.Unwrap().ExecutionID)

	missing, err := s.history.ExecutionByOrderID(uuid.New().String())
	s.Require().NoError(err)
	s.True(missing.IsNone())
}

func (s *ExecutionHistoryTestSuite) TestRejectionAudit() {
	order := types.PendingOrder{
		OrderID:      uuid.New().String(),
		Symbol:       "AAPL",
		Side:         types.OrderSideBuy,
		Kind:         types.OrderKindLimit,
		TriggerPrice: 45,
		Shares:       10,
		CreatedAt:    s.base,
		Status:       types.OrderStatusRejected,
	}

	s.Require().NoError(s.history.AppendRejection(order, s.base.Add(time.Minute)))

	count, err := s.history.RejectionCount()
	s.Require().NoError(err)
	s.Equal(1, count)

	// Rejections never show up as fills.
	executions, err := s.history.Executions(types.TradeFilter{})
	s.Require().NoError(err)
	s.Empty(executions)
}

func (s *ExecutionHistoryTestSuite) TestSymbolStats() {
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideBuy, 10, 50, s.base)))
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideBuy, 10, 60, s.base.Add(time.Minute))))
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideSell, 10, 70, s.base.Add(2*time.Minute))))
	s.Require().NoError(s.history.AppendExecution(s.execution("NVDA", types.OrderSideBuy, 5, 200, s.base)))

	stats, err := s.history.SymbolStats()
	s.Require().NoError(err)
	s.Require().Len(stats, 2)

	apple := stats[0]
	s.Equal("AAPL", apple.Symbol)
	s.Equal(3, apple.Executions)
	s.Equal(20.0, apple.BuyShares)
	s.Equal(10.0, apple.SellShares)
	s.InDelta(1100.0, apple.BuyAmount, 1e-9)
	s.InDelta(700.0, apple.SellAmount, 1e-9)
	// Average buy cost is 55, so selling 10 at 70 realizes 150.
	s.InDelta(150.0, apple.RealizedPnL, 1e-9)

	nvidia := stats[1]
	s.Equal("NVDA", nvidia.Symbol)
	s.Equal(1, nvidia.Executions)
	s.InDelta(0.0, nvidia.RealizedPnL, 1e-9)
}

func (s *ExecutionHistoryTestSuite) TestCleanupResetsTables() {
	s.Require().NoError(s.history.AppendExecution(s.execution("AAPL", types.OrderSideBuy, 10, 50, s.base)))
	s.Require().NoError(s.history.Cleanup())

	executions, err := s.history.Executions(types.TradeFilter{})
	s.Require().NoError(err)
	s.Empty(executions)

	count, err := s.history.RejectionCount()
	s.Require().NoError(err)
	s.Equal(0, count)
}
