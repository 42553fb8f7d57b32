package sandbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const componentName = "trade-simulator"

// Simulator replays a stream of ticks against a simulated broker account.
// Wire OnTick and OnOrder into a bus.Router; everything runs on the router's
// dispatch goroutine, which keeps a seeded scenario bit-for-bit reproducible.
type Simulator struct {
	router    *bus.Router
	caps      broker.Capabilities
	engine    *Engine
	portfolio *Portfolio

	stopOut   fixed.Point
	tickIdx   int64
	lastTicks map[string]common.Tick
}

func NewSimulator(router *bus.Router, caps broker.Capabilities, startBalance fixed.Point, opts ...Option) (*Simulator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	model, err := latency.NewModel(o.latencyCfg)
	if err != nil {
		return nil, fmt.Errorf("latency model: %w", err)
	}

	if startBalance.Lte(fixed.Zero) {
		return nil, fmt.Errorf("start balance must be positive, got %s", startBalance)
	}

	stopOut := caps.StopOutLevel()
	if o.stopOutSet {
		stopOut = o.stopOut
	}

	s := &Simulator{
		router:    router,
		caps:      caps,
		stopOut:   stopOut,
		lastTicks: make(map[string]common.Tick),
	}

	s.portfolio = NewPortfolio(caps, o.schedule, startBalance)
	s.portfolio.rates = o.rates
	s.engine = newEngine(caps, o.schedule, model, o.slippage, o.orderTTL, s.portfolio, s.postEvent)
	return s, nil
}

// OnTick advances the scenario by one tick: revalue positions, resolve due
// orders, fire protective triggers, then enforce the stop-out level.
func (s *Simulator) OnTick(_ context.Context, tick common.Tick) {
	s.tickIdx++
	s.lastTicks[tick.Symbol] = tick

	updated := s.portfolio.UpdateOnTick(tick)
	s.engine.Advance(s.tickIdx, tick)
	s.engine.SweepProtective(s.tickIdx, tick)
	s.engine.CheckStopOut(s.tickIdx, s.stopOut, s.lastTicks)

	for _, position := range updated {
		s.postEvent(bus.PositionUpdatedEvent, position)
	}
	s.postEvent(bus.EquityEvent, common.Equity{
		Source:      componentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   tick.TimeStamp,
		Value:       s.portfolio.Equity(),
	})
}

// OnOrder accepts orders posted to the bus. The synchronous result is only
// logged here; callers needing it should use Submit through a gateway.
func (s *Simulator) OnOrder(_ context.Context, order common.Order) {
	result := s.Submit(order)
	if result.Rejected {
		slog.Warn("order rejected", "reason", result.Reason, "message", result.Message)
	}
}

// Submit validates and enqueues an order at the current tick.
func (s *Simulator) Submit(order common.Order) common.OrderResult {
	return s.engine.Submit(order, s.tickIdx)
}

// CancelOrder withdraws a still-pending order from the execution queue.
func (s *Simulator) CancelOrder(orderId utility.OrderID) error {
	return s.engine.Cancel(orderId)
}

// ModifyLimitOrder moves the limit price of a resting pending order.
func (s *Simulator) ModifyLimitOrder(orderId utility.OrderID, price fixed.Point) error {
	return s.engine.ModifyLimit(orderId, price)
}

// Finish force-closes the scenario: queued orders are marked force-closed
// and open positions are closed at their last seen prices.
func (s *Simulator) Finish() {
	s.engine.ForceClose(s.tickIdx, s.lastTicks)
}

func (s *Simulator) CurrentTick() int64 {
	return s.tickIdx
}

func (s *Simulator) AccountInfo() common.AccountSnapshot {
	return s.portfolio.AccountInfo()
}

func (s *Simulator) OpenPositions() []common.Position {
	return s.portfolio.OpenPositions()
}

func (s *Simulator) Position(id common.PositionId) (common.Position, error) {
	return s.portfolio.Position(id)
}

func (s *Simulator) TradeRecords() []common.TradeRecord {
	return s.portfolio.Records()
}

func (s *Simulator) PendingOrders() []common.PendingOrder {
	return s.engine.PendingOrders()
}

func (s *Simulator) HasPendingOrders() bool {
	return s.engine.HasPendingOrders()
}

func (s *Simulator) IsPendingClose(id common.PositionId) bool {
	return s.engine.IsPendingClose(id)
}

func (s *Simulator) ExecutionStats() common.ExecutionStats {
	return s.engine.Stats()
}

func (s *Simulator) Statistics() Statistics {
	return buildStatistics(s.portfolio)
}

func (s *Simulator) CostBreakdown() CostBreakdown {
	return buildCostBreakdown(s.portfolio)
}

func (s *Simulator) postEvent(id bus.EventId, data interface{}) {
	if s.router == nil {
		return
	}
	if err := s.router.Post(id, data); err != nil {
		slog.Warn("unable to post event", "error", err, "event_id", id)
	}
}
