package sandbox

import (
	"time"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// SlippageHandler returns a non-negative price offset applied against the
// taker on market and stop fills. A nil handler means perfect fills.
type SlippageHandler func(order common.Order, tick common.Tick) fixed.Point

// RateProvider converts quote-currency amounts into the account currency for
// symbols not quoted in it.
type RateProvider interface {
	ExchangeRate(from, to string, at time.Time) (fixed.Point, error)
}

type options struct {
	latencyCfg latency.Config
	schedule   fees.Schedule
	slippage   SlippageHandler
	rates      RateProvider
	stopOut    fixed.Point
	stopOutSet bool
	orderTTL   int64
}

type Option func(*options)

// WithLatencyModel seeds the order latency simulation. The default config
// draws zero delays, so orders fill on their submission tick.
func WithLatencyModel(cfg latency.Config) Option {
	return func(o *options) { o.latencyCfg = cfg }
}

func WithFeeSchedule(schedule fees.Schedule) Option {
	return func(o *options) { o.schedule = schedule }
}

func WithSlippageHandler(handler SlippageHandler) Option {
	return func(o *options) { o.slippage = handler }
}

func WithRateProvider(provider RateProvider) Option {
	return func(o *options) { o.rates = provider }
}

// WithStopOutLevel overrides the stop-out margin level from the broker
// descriptor. Zero disables forced liquidation.
func WithStopOutLevel(level fixed.Point) Option {
	return func(o *options) {
		o.stopOut = level
		o.stopOutSet = true
	}
}

// WithOrderTTL times out queued limit and stop orders whose trigger has not
// fired within ttl ticks of submission. Zero keeps them alive until the
// scenario ends.
func WithOrderTTL(ticks int64) Option {
	return func(o *options) { o.orderTTL = ticks }
}
