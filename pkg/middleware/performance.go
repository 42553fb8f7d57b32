package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
)

// Performance accumulates handler wall time per event stream. Pair it with a
// Telemetry to turn totals into averages.
type Performance struct {
	logger *zap.Logger

	totalTickHandlerDur    time.Duration
	totalBalanceHandlerDur time.Duration
	totalEquityHandlerDur  time.Duration
	totalPosOpenHandlerDur time.Duration
	totalPosUpdtHandlerDur time.Duration
	totalPosClosHandlerDur time.Duration
	totalOrderHandlerDur   time.Duration
	totalTradeHandlerDur   time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithTick(handler bus.TickEventHandler) bus.TickEventHandler {
	return func(ctx context.Context, tick common.Tick) {
		startTime := time.Now()
		handler(ctx, tick)
		p.totalTickHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		startTime := time.Now()
		handler(ctx, balance)
		p.totalBalanceHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		startTime := time.Now()
		handler(ctx, equity)
		p.totalEquityHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosOpenHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosUpdtHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosClosHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		startTime := time.Now()
		handler(ctx, order)
		p.totalOrderHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.TradeRecord) {
		startTime := time.Now()
		handler(ctx, trade)
		p.totalTradeHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) PrintStatistics(t *Telemetry) {
	if t == nil {
		p.logger.Warn("Telemetry is nil; cannot compute performance statistics")
		return
	}

	var fields []zap.Field

	appendAvg := func(name string, total time.Duration, count int64) {
		if count <= 0 {
			return
		}
		avg := total / time.Duration(count)
		if avg > 0 {
			fields = append(fields,
				zap.Duration(name+"_avg_duration", avg),
				zap.Duration(name+"_total_duration", total),
			)
		}
	}

	appendAvg("tick", p.totalTickHandlerDur, t.tickEventCounter)
	appendAvg("balance", p.totalBalanceHandlerDur, t.balanceEventCounter)
	appendAvg("equity", p.totalEquityHandlerDur, t.equityEventCounter)
	appendAvg("position_open", p.totalPosOpenHandlerDur, t.positionOpenedEventCounter)
	appendAvg("position_update", p.totalPosUpdtHandlerDur, t.positionUpdatedEventCounter)
	appendAvg("position_closed", p.totalPosClosHandlerDur, t.positionClosedEventCounter)
	appendAvg("order", p.totalOrderHandlerDur, t.orderEventCounter)
	appendAvg("trade", p.totalTradeHandlerDur, t.tradeEventCounter)

	p.logger.Info("performance statistics", fields...)
}
