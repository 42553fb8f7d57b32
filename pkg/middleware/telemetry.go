package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
)

// Telemetry counts events flowing through the wrapped handlers.
type Telemetry struct {
	logger *zap.Logger

	tickEventCounter            int64
	balanceEventCounter         int64
	equityEventCounter          int64
	positionOpenedEventCounter  int64
	positionUpdatedEventCounter int64
	positionClosedEventCounter  int64
	orderEventCounter           int64
	tradeEventCounter           int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithTick(handler bus.TickEventHandler) bus.TickEventHandler {
	return func(ctx context.Context, tick common.Tick) {
		t.tickEventCounter++
		handler(ctx, tick)
	}
}

func (t *Telemetry) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		t.balanceEventCounter++
		handler(ctx, balance)
	}
}

func (t *Telemetry) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		t.equityEventCounter++
		handler(ctx, equity)
	}
}

func (t *Telemetry) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionOpenedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionUpdatedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionClosedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		t.orderEventCounter++
		handler(ctx, order)
	}
}

func (t *Telemetry) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.TradeRecord) {
		t.tradeEventCounter++
		handler(ctx, trade)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("tick_events", t.tickEventCounter),
		zap.Int64("balance_events", t.balanceEventCounter),
		zap.Int64("equity_events", t.equityEventCounter),
		zap.Int64("position_opened_events", t.positionOpenedEventCounter),
		zap.Int64("position_updated_events", t.positionUpdatedEventCounter),
		zap.Int64("position_closed_events", t.positionClosedEventCounter),
		zap.Int64("order_events", t.orderEventCounter),
		zap.Int64("trade_events", t.tradeEventCounter))
}
