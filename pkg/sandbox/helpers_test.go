package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const testBrokerJSON = `{
	"broker_info": {
		"company": "Sandbox Capital",
		"leverage": 100,
		"hedging_allowed": true
	},
	"account_info": {
		"currency": "USD",
		"stop_out_level": 50
	},
	"symbols": {
		"EURUSD": {
			"quote_currency": "USD",
			"volume_min": 0.01,
			"volume_max": 100,
			"volume_step": 0.01,
			"tick_size": 0.00001,
			"digits": 5,
			"contract_size": 100000,
			"trade_allowed": true,
			"spread_current": 0.0002
		},
		"USDJPY": {
			"quote_currency": "JPY",
			"volume_min": 0.01,
			"volume_max": 50,
			"volume_step": 0.01,
			"tick_size": 0.001,
			"digits": 3,
			"contract_size": 100000,
			"trade_allowed": false,
			"spread_current": 0.02
		}
	}
}`

var testBase = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testCaps(t *testing.T) broker.Capabilities {
	t.Helper()
	d, err := broker.Parse([]byte(testBrokerJSON))
	require.NoError(t, err)
	return d
}

func eurusdTick(bid, ask float64, at time.Time) common.Tick {
	return common.Tick{
		Symbol:    "EURUSD",
		Bid:       fixed.FromFloat64(bid),
		Ask:       fixed.FromFloat64(ask),
		TimeStamp: at,
	}
}

func tickN(n int64, bid, ask float64) common.Tick {
	return eurusdTick(bid, ask, testBase.Add(time.Duration(n)*time.Second))
}

func marketBuy(lots float64) common.Order {
	return common.Order{
		Action: common.OrderActionOpen,
		Kind:   common.OrderKindMarket,
		Side:   common.OrderSideBuy,
		Lots:   fixed.FromFloat64(lots),
		Symbol: "EURUSD",
	}
}

func closeOrder(id common.PositionId, lots float64) common.Order {
	order := common.Order{
		Action:     common.OrderActionClose,
		Kind:       common.OrderKindMarket,
		PositionId: id,
		Symbol:     "EURUSD",
	}
	if lots > 0 {
		order.Lots = fixed.FromFloat64(lots)
	}
	return order
}

func newTestEngine(t *testing.T, cfg latency.Config, schedule fees.Schedule, balance float64) (*Engine, *Portfolio) {
	t.Helper()
	caps := testCaps(t)
	model, err := latency.NewModel(cfg)
	require.NoError(t, err)

	portfolio := NewPortfolio(caps, schedule, fixed.FromFloat64(balance))
	engine := newEngine(caps, schedule, model, nil, 0, portfolio, nil)
	return engine, portfolio
}
