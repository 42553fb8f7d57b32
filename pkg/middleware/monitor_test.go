package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/quantarch/tradesim/pkg/common"
)

func TestMonitor_PassesThrough(t *testing.T) {
	monitor := NewMonitor(MonitorTicks | MonitorOrders)

	tickSeen := false
	handler := monitor.WithTick(func(context.Context, common.Tick) {
		tickSeen = true
	})
	handler(context.Background(), common.Tick{Symbol: "EURUSD"})
	assert.True(t, tickSeen)

	orderSeen := false
	orderHandler := monitor.WithOrder(func(context.Context, common.Order) {
		orderSeen = true
	})
	orderHandler(context.Background(), common.Order{})
	assert.True(t, orderSeen)
}

func TestMonitor_DisabledStreamStillDispatches(t *testing.T) {
	monitor := NewMonitor(MonitorNone)

	called := 0
	handler := monitor.WithEquity(func(context.Context, common.Equity) {
		called++
	})
	handler(context.Background(), common.Equity{})
	assert.Equal(t, 1, called, "monitoring flags must not filter events")
}

func TestTelemetry_CountsEvents(t *testing.T) {
	telemetry := NewTelemetry(zap.NewNop())

	tickHandler := Chain(telemetry.WithTick)(NoopTickHdl)
	tradeHandler := Chain(telemetry.WithTrade)(NoopTradeHdl)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		tickHandler(ctx, common.Tick{})
	}
	tradeHandler(ctx, common.TradeRecord{})

	assert.Equal(t, int64(5), telemetry.tickEventCounter)
	assert.Equal(t, int64(1), telemetry.tradeEventCounter)
}

func TestPerformance_AccumulatesDurations(t *testing.T) {
	telemetry := NewTelemetry(zap.NewNop())
	performance := NewPerformance(zap.NewNop())

	handler := Chain(telemetry.WithTick, performance.WithTick)(NoopTickHdl)
	for i := 0; i < 3; i++ {
		handler(context.Background(), common.Tick{})
	}

	assert.Equal(t, int64(3), telemetry.tickEventCounter)
	performance.PrintStatistics(telemetry)
	performance.PrintStatistics(nil)
}
