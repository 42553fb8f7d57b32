package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

func TestEngine_SubmitValidationNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		order  common.Order
		reason common.RejectionReason
	}{
		{
			name: "unknown symbol",
			order: common.Order{
				Action: common.OrderActionOpen,
				Kind:   common.OrderKindMarket,
				Lots:   fixed.FromFloat64(0.1),
				Symbol: "XAUUSD",
			},
			reason: common.RejectionSymbolNotFound,
		},
		{
			name: "symbol not tradeable",
			order: common.Order{
				Action: common.OrderActionOpen,
				Kind:   common.OrderKindMarket,
				Lots:   fixed.FromFloat64(0.1),
				Symbol: "USDJPY",
			},
			reason: common.RejectionSymbolNotTradeable,
		},
		{
			name: "lots below minimum",
			order: common.Order{
				Action: common.OrderActionOpen,
				Kind:   common.OrderKindMarket,
				Lots:   fixed.FromFloat64(0.005),
				Symbol: "EURUSD",
			},
			reason: common.RejectionInvalidLotSize,
		},
		{
			name: "lots misaligned to step",
			order: common.Order{
				Action: common.OrderActionOpen,
				Kind:   common.OrderKindMarket,
				Lots:   fixed.FromFloat64(0.015),
				Symbol: "EURUSD",
			},
			reason: common.RejectionInvalidLotSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

			result := engine.Submit(tt.order, 1)
			require.True(t, result.Rejected)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Empty(t, result.OrderId)

			// A validation failure must leave nothing behind.
			assert.False(t, engine.HasPendingOrders())
			assert.Equal(t, 1, engine.Stats().OrdersSent)
			assert.Equal(t, 1, engine.Stats().OrdersRejected)
		})
	}
}

func TestEngine_UnsupportedOrderKind(t *testing.T) {
	restricted := `{
		"broker_info": {"leverage": 100, "order_kinds": ["market", "limit"]},
		"account_info": {"currency": "USD"},
		"symbols": {"EURUSD": {
			"quote_currency": "USD", "volume_min": 0.01, "volume_max": 100,
			"volume_step": 0.01, "tick_size": 0.00001, "digits": 5,
			"contract_size": 100000, "trade_allowed": true
		}}
	}`
	caps, err := broker.Parse([]byte(restricted))
	require.NoError(t, err)

	model, err := latency.NewModel(latency.Config{})
	require.NoError(t, err)
	portfolio := NewPortfolio(caps, fees.Schedule{}, fixed.FromFloat64(10000))
	engine := newEngine(caps, fees.Schedule{}, model, nil, 0, portfolio, nil)

	order := marketBuy(0.1)
	order.Kind = common.OrderKindStop

	result := engine.Submit(order, 1)
	require.True(t, result.Rejected)
	assert.Equal(t, common.RejectionUnsupportedOrderType, result.Reason)
}

func TestEngine_MarketFillWaitsForDueTick(t *testing.T) {
	cfg := latency.Config{ApiMin: 1, ApiMax: 1, ExecMin: 2, ExecMax: 2}
	engine, portfolio := newTestEngine(t, cfg, fees.Schedule{}, 10000)

	result := engine.Submit(marketBuy(0.1), 10)
	require.False(t, result.Rejected)

	pending := engine.PendingOrders()
	require.Len(t, pending, 1)
	assert.Equal(t, int64(13), pending[0].DueTick)

	for tick := int64(11); tick < 13; tick++ {
		engine.Advance(tick, tickN(tick, 1.1000, 1.1002))
		assert.Empty(t, portfolio.OpenPositions(), "filled before due tick %d", tick)
	}

	engine.Advance(13, tickN(13, 1.1000, 1.1002))
	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].EntryPrice.Eq(fixed.FromFloat64(1.1002)))
	assert.Equal(t, int64(13), positions[0].EntryTick)
	assert.False(t, engine.HasPendingOrders())

	stats := engine.Stats()
	assert.Equal(t, 1, stats.OrdersSent)
	assert.Equal(t, 1, stats.OrdersExecuted)
	assert.Equal(t, 0, stats.OrdersRejected)
}

func TestEngine_LimitFillsAtLimitOrBetter(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	order := marketBuy(0.1)
	order.Kind = common.OrderKindLimit
	order.Price = fixed.FromFloat64(1.0995)

	result := engine.Submit(order, 1)
	require.False(t, result.Rejected)

	engine.Advance(2, tickN(2, 1.1000, 1.1002))
	assert.Empty(t, portfolio.OpenPositions())
	assert.True(t, engine.HasPendingOrders())

	engine.Advance(3, tickN(3, 1.0988, 1.0990))
	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].EntryPrice.Eq(fixed.FromFloat64(1.0990)),
		"expected fill at market inside the limit, got %s", positions[0].EntryPrice)
}

func TestEngine_StopTriggersOnCross(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	order := marketBuy(0.1)
	order.Kind = common.OrderKindStop
	order.StopPrice = fixed.FromFloat64(1.1010)

	engine.Submit(order, 1)
	engine.Advance(2, tickN(2, 1.1000, 1.1002))
	assert.Empty(t, portfolio.OpenPositions())

	engine.Advance(3, tickN(3, 1.1010, 1.1012))
	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].EntryPrice.Eq(fixed.FromFloat64(1.1012)))
}

func TestEngine_StopLimitArmsThenRestsAsLimit(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	order := marketBuy(0.1)
	order.Kind = common.OrderKindStopLimit
	order.StopPrice = fixed.FromFloat64(1.1010)
	order.Price = fixed.FromFloat64(1.1005)

	engine.Submit(order, 1)

	// Stop crossed but market is above the limit: armed, not filled.
	engine.Advance(2, tickN(2, 1.1010, 1.1012))
	assert.Empty(t, portfolio.OpenPositions())
	pending := engine.PendingOrders()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Armed)

	// Market retraces into the limit.
	engine.Advance(3, tickN(3, 1.1001, 1.1003))
	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].EntryPrice.Eq(fixed.FromFloat64(1.1003)))
}

func TestEngine_MarginCheckedAtFillTime(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 100)

	// 0.1 lots at ~1.10 needs 110 margin against a 100 balance.
	engine.Submit(marketBuy(0.1), 1)
	engine.Advance(1, tickN(1, 1.1000, 1.1002))

	assert.Empty(t, portfolio.OpenPositions())
	assert.False(t, engine.HasPendingOrders())

	stats := engine.Stats()
	assert.Equal(t, 1, stats.OrdersRejected)
	assert.Equal(t, 0, stats.OrdersExecuted)
}

func TestEngine_EntryFeesAttached(t *testing.T) {
	schedule := fees.Schedule{CommissionPerLot: fixed.FromFloat64(3.5)}
	engine, portfolio := newTestEngine(t, latency.Config{}, schedule, 10000)

	engine.Submit(marketBuy(0.1), 1)
	engine.Advance(1, tickN(1, 1.1000, 1.1002))

	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	require.Len(t, positions[0].Fees, 2)

	spread := common.SumFeesByType(positions[0].Fees, common.FeeTypeSpread)
	assert.True(t, spread.Eq(fixed.Two), "spread fee: got %s", spread)
	commission := common.SumFeesByType(positions[0].Fees, common.FeeTypeCommission)
	assert.True(t, commission.Eq(fixed.FromFloat64(0.35)), "commission fee: got %s", commission)
}

func TestEngine_ProtectiveCloseSkipsLatencyQueue(t *testing.T) {
	// Queued orders wait 10 ticks, but the stop-loss fires immediately.
	cfg := latency.Config{ApiMin: 5, ApiMax: 5, ExecMin: 5, ExecMax: 5}
	engine, portfolio := newTestEngine(t, cfg, fees.Schedule{}, 10000)

	caps := testCaps(t)
	spec, err := caps.Symbol("EURUSD")
	require.NoError(t, err)

	order := marketBuy(0.1)
	order.StopLoss = fixed.FromFloat64(1.0950)
	portfolio.UpdateOnTick(tickN(1, 1.1000, 1.1002))
	portfolio.Open(order, spec, fixed.FromFloat64(1.1002), nil, 1)

	tick := tickN(2, 1.0949, 1.0951)
	portfolio.UpdateOnTick(tick)
	engine.SweepProtective(2, tick)

	assert.Empty(t, portfolio.OpenPositions())
	records := portfolio.Records()
	require.Len(t, records, 1)
	assert.Equal(t, common.CloseReasonStopLoss, records[0].CloseReason)
	assert.True(t, records[0].ExitPrice.Eq(fixed.FromFloat64(1.0949)))
}

func TestEngine_TakeProfitUsesCloseSidePrice(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	caps := testCaps(t)
	spec, err := caps.Symbol("EURUSD")
	require.NoError(t, err)

	order := marketBuy(0.1)
	order.TakeProfit = fixed.FromFloat64(1.1050)
	portfolio.UpdateOnTick(tickN(1, 1.1000, 1.1002))
	portfolio.Open(order, spec, fixed.FromFloat64(1.1002), nil, 1)

	// Ask crosses the level but the bid, which a long closes at, does not.
	tick := tickN(2, 1.1048, 1.1051)
	portfolio.UpdateOnTick(tick)
	engine.SweepProtective(2, tick)
	require.Len(t, portfolio.OpenPositions(), 1)

	tick = tickN(3, 1.1050, 1.1052)
	portfolio.UpdateOnTick(tick)
	engine.SweepProtective(3, tick)
	require.Empty(t, portfolio.OpenPositions())

	records := portfolio.Records()
	require.Len(t, records, 1)
	assert.Equal(t, common.CloseReasonTakeProfit, records[0].CloseReason)
}

func TestEngine_StopOutLiquidatesOldestFirst(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 250)

	caps := testCaps(t)
	spec, err := caps.Symbol("EURUSD")
	require.NoError(t, err)

	portfolio.UpdateOnTick(tickN(1, 1.1000, 1.1002))
	first := portfolio.Open(marketBuy(0.1), spec, fixed.FromFloat64(1.1000), nil, 1)
	second := portfolio.Open(marketBuy(0.1), spec, fixed.FromFloat64(1.1000), nil, 2)

	// A 100 pip drop puts each position 100 under water: equity 50 against
	// 220 used margin, far below the 50 percent stop-out level.
	tick := tickN(3, 1.0900, 1.0902)
	portfolio.UpdateOnTick(tick)
	engine.CheckStopOut(3, fixed.FromFloat64(50), map[string]common.Tick{"EURUSD": tick})

	records := portfolio.Records()
	require.Len(t, records, 2)
	assert.Equal(t, first.Id, records[0].PositionId)
	assert.Equal(t, second.Id, records[1].PositionId)
	for _, record := range records {
		assert.Equal(t, common.CloseReasonStopOut, record.CloseReason)
	}
	assert.Empty(t, portfolio.OpenPositions())
}

func TestEngine_OrderTTLTimesOut(t *testing.T) {
	caps := testCaps(t)
	model, err := latency.NewModel(latency.Config{})
	require.NoError(t, err)
	portfolio := NewPortfolio(caps, fees.Schedule{}, fixed.FromFloat64(10000))
	engine := newEngine(caps, fees.Schedule{}, model, nil, 5, portfolio, nil)

	order := marketBuy(0.1)
	order.Kind = common.OrderKindLimit
	order.Price = fixed.FromFloat64(1.0500)

	engine.Submit(order, 1)
	for tick := int64(2); tick <= 6; tick++ {
		engine.Advance(tick, tickN(tick, 1.1000, 1.1002))
		assert.True(t, engine.HasPendingOrders())
	}

	engine.Advance(7, tickN(7, 1.1000, 1.1002))
	assert.False(t, engine.HasPendingOrders())

	stats := engine.Stats()
	assert.Equal(t, 1, stats.OrdersTimedOut)
	assert.Equal(t, 0, stats.OrdersExecuted)
	assert.Equal(t, 0, stats.OrdersForceClosed)
}

func TestEngine_ForceCloseIsNotATimeout(t *testing.T) {
	engine, portfolio := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	caps := testCaps(t)
	spec, err := caps.Symbol("EURUSD")
	require.NoError(t, err)

	limit := marketBuy(0.1)
	limit.Kind = common.OrderKindLimit
	limit.Price = fixed.FromFloat64(1.0500)
	engine.Submit(limit, 1)

	tick := tickN(2, 1.1000, 1.1002)
	portfolio.UpdateOnTick(tick)
	portfolio.Open(marketBuy(0.1), spec, fixed.FromFloat64(1.1002), nil, 2)

	engine.ForceClose(3, map[string]common.Tick{"EURUSD": tick})

	stats := engine.Stats()
	assert.Equal(t, 1, stats.OrdersForceClosed)
	assert.Equal(t, 0, stats.OrdersTimedOut)
	assert.False(t, engine.HasPendingOrders())

	records := portfolio.Records()
	require.Len(t, records, 1)
	assert.Equal(t, common.CloseReasonScenarioEnd, records[0].CloseReason)
}

func TestEngine_CancelPendingOrder(t *testing.T) {
	cfg := latency.Config{ApiMin: 3, ApiMax: 3, ExecMin: 3, ExecMax: 3}
	engine, _ := newTestEngine(t, cfg, fees.Schedule{}, 10000)

	result := engine.Submit(marketBuy(0.1), 1)
	require.False(t, result.Rejected)

	require.NoError(t, engine.Cancel(result.OrderId))
	assert.False(t, engine.HasPendingOrders())
	assert.Equal(t, 1, engine.Stats().OrdersCancelled)

	assert.Error(t, engine.Cancel(result.OrderId))
}

func TestEngine_CloseUnknownPositionRejects(t *testing.T) {
	engine, _ := newTestEngine(t, latency.Config{}, fees.Schedule{}, 10000)

	engine.Submit(closeOrder(99, 0), 1)
	engine.Advance(1, tickN(1, 1.1000, 1.1002))

	stats := engine.Stats()
	assert.Equal(t, 1, stats.OrdersRejected)
	assert.Equal(t, 0, stats.OrdersExecuted)
}

func TestEngine_SlippageMovesAgainstTaker(t *testing.T) {
	caps := testCaps(t)
	model, err := latency.NewModel(latency.Config{})
	require.NoError(t, err)

	slip := func(common.Order, common.Tick) fixed.Point {
		return fixed.FromFloat64(0.0001)
	}
	portfolio := NewPortfolio(caps, fees.Schedule{}, fixed.FromFloat64(10000))
	engine := newEngine(caps, fees.Schedule{}, model, slip, 0, portfolio, nil)

	engine.Submit(marketBuy(0.1), 1)
	engine.Advance(1, tickN(1, 1.1000, 1.1002))

	positions := portfolio.OpenPositions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].EntryPrice.Eq(fixed.FromFloat64(1.1003)),
		"buy should fill above the ask, got %s", positions[0].EntryPrice)
}
