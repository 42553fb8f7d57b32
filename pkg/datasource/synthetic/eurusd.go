package synthetic

import (
	"log/slog"
	"time"

	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// NewEURUSDGenerator builds a generator with plausible EURUSD market
// texture. Drift and volatility are annualized fractions.
func NewEURUSDGenerator(seed int64, startTime time.Time, duration time.Duration, drift, volatility float64) *Generator {
	const (
		startPrice    = 1.0550
		typicalSpread = 0.00003 // 0.3 pips
		minSpread     = 0.00001
		maxSpread     = 0.00006

		tickIntervalSeconds = 1.0
		intervalJitter      = 0.45

		spreadVolatility = 0.12
		volumeJitter     = 0.65
	)

	steps := int64(duration.Seconds() / tickIntervalSeconds)

	cfg := Config{
		Symbol:     "EURUSD",
		Seed:       seed,
		StartTime:  startTime,
		StartPrice: fixed.FromFloat64(startPrice),
		Drift:      fixed.FromFloat64(drift),
		Volatility: fixed.FromFloat64(volatility),
		Steps:      steps,

		Spread:           fixed.FromFloat64(typicalSpread),
		MinSpread:        fixed.FromFloat64(minSpread),
		MaxSpread:        fixed.FromFloat64(maxSpread),
		SpreadVolatility: spreadVolatility,

		TickInterval:   time.Duration(tickIntervalSeconds * float64(time.Second)),
		IntervalJitter: intervalJitter,

		AvgVolume:    fixed.One,
		VolumeJitter: volumeJitter,

		PriceDigits:  5,
		VolumeDigits: 2,
	}

	slog.Debug("EURUSD synthetic tick stream",
		"seed", seed,
		"duration", duration,
		"drift_annual", drift,
		"volatility_annual", volatility,
		"estimated_ticks", steps,
		"start_time", startTime,
	)

	return NewGenerator(cfg)
}
