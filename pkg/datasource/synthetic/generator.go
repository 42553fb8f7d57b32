package synthetic

import (
	"math/rand"
	"time"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/datasource"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const (
	generatorComponentName = "datasource.synthetic.generator"
)

// Config drives one synthetic tick stream. Drift and Volatility are
// annualized; the generator walks the mid price as geometric Brownian
// motion. Streams with the same config and seed are identical.
type Config struct {
	Symbol     string
	Seed       int64
	StartTime  time.Time
	StartPrice fixed.Point
	Drift      fixed.Point
	Volatility fixed.Point
	Steps      int64

	Spread           fixed.Point
	MinSpread        fixed.Point
	MaxSpread        fixed.Point
	SpreadVolatility float64

	TickInterval   time.Duration
	IntervalJitter float64

	AvgVolume    fixed.Point
	VolumeJitter float64

	PriceDigits  int
	VolumeDigits int
}

type Generator struct {
	cfg Config
	rng *rand.Rand

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	step       int64
	lastTime   time.Time
	lastPrice  fixed.Point
	halfSpread fixed.Point
}

func NewGenerator(cfg Config) *Generator {
	secondsPerYear := 365.25 * 24 * 3600
	deltaT := fixed.FromFloat64(cfg.TickInterval.Seconds() / secondsPerYear)

	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),

		deltaLogPre1: cfg.Drift.Sub(cfg.Volatility.Mul(cfg.Volatility).Mul(fixed.PointFive)).Mul(deltaT),
		deltaLogPre2: cfg.Volatility.Mul(deltaT.Sqrt()),

		lastTime:   cfg.StartTime,
		lastPrice:  cfg.StartPrice,
		halfSpread: cfg.Spread.DivInt64(2),
	}
}

func (g *Generator) GetNext() (common.Tick, error) {
	var tick common.Tick

	if g.step >= g.cfg.Steps {
		return tick, datasource.ErrEof
	}
	g.step++

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())

	g.updateSpread()
	g.lastTime = g.lastTime.Add(g.nextInterval())

	tick.Ask = g.lastPrice.Add(g.halfSpread).Rescale(g.cfg.PriceDigits)
	tick.Bid = g.lastPrice.Sub(g.halfSpread).Rescale(g.cfg.PriceDigits)
	tick.AskVolume = g.nextVolume().Rescale(g.cfg.VolumeDigits)
	tick.BidVolume = g.nextVolume().Rescale(g.cfg.VolumeDigits)
	tick.TimeStamp = g.lastTime

	tick.Source = generatorComponentName
	tick.Symbol = g.cfg.Symbol
	tick.ExecutionId = utility.GetExecutionID()
	tick.TraceID = utility.CreateTraceID()

	return tick, nil
}

// updateSpread random-walks the half spread between the configured bounds.
func (g *Generator) updateSpread() {
	if g.cfg.SpreadVolatility <= 0 {
		return
	}

	change := g.rng.NormFloat64() * g.cfg.SpreadVolatility
	next := g.halfSpread.Mul(fixed.FromFloat64(1.0 + change))

	minHalf := g.cfg.MinSpread.DivInt64(2)
	maxHalf := g.cfg.MaxSpread.DivInt64(2)
	if next.Lt(minHalf) {
		next = minHalf
	} else if next.Gt(maxHalf) {
		next = maxHalf
	}
	g.halfSpread = next
}

// nextInterval draws an exponential inter-tick gap clamped around the
// configured average.
func (g *Generator) nextInterval() time.Duration {
	if g.cfg.IntervalJitter <= 0 {
		return g.cfg.TickInterval
	}

	avg := float64(g.cfg.TickInterval.Nanoseconds())
	interval := g.rng.ExpFloat64() * avg

	low := avg * (1.0 - g.cfg.IntervalJitter)
	high := avg * (1.0 + g.cfg.IntervalJitter*3)
	if interval < low {
		interval = low
	} else if interval > high {
		interval = high
	}
	return time.Duration(int64(interval))
}

func (g *Generator) nextVolume() fixed.Point {
	if g.cfg.VolumeJitter <= 0 {
		return g.cfg.AvgVolume
	}

	variation := g.rng.NormFloat64() * g.cfg.VolumeJitter
	volume := g.cfg.AvgVolume.Mul(fixed.FromFloat64(1.0 + variation).Exp())
	if volume.Lte(fixed.Zero) {
		return fixed.One
	}
	return volume
}
