package scenario

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/middleware"
	"github.com/quantarch/tradesim/pkg/sandbox"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const (
	defaultRouterCapacity = 1000
	defaultStartBalance   = 10000
)

// FeeConfig mirrors fees.Schedule with plain floats so it reads naturally
// from yaml. Amounts are in account currency, rates are fractions of
// notional.
type FeeConfig struct {
	CommissionPerLot float64 `yaml:"commission_per_lot"`
	SwapLongPerLot   float64 `yaml:"swap_long_per_lot"`
	SwapShortPerLot  float64 `yaml:"swap_short_per_lot"`
	MakerRate        float64 `yaml:"maker_rate"`
	TakerRate        float64 `yaml:"taker_rate"`
}

// SourceConfig selects and parameterizes the tick feed. Kind is one of
// "synthetic", "historical" or "duckdb". From/To use the "2006-01-02
// 15:04:05" layout, Duration the time.ParseDuration syntax.
type SourceConfig struct {
	Kind   string `yaml:"kind"`
	Symbol string `yaml:"symbol"`

	// historical: path to a binary tick file. duckdb: database file.
	Path string `yaml:"path"`
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// synthetic generator parameters.
	Seed       int64   `yaml:"seed"`
	Duration   string  `yaml:"duration"`
	Drift      float64 `yaml:"drift"`
	Volatility float64 `yaml:"volatility"`
}

// StrategyConfig parameterizes the bundled breakout strategy.
type StrategyConfig struct {
	Symbol           string  `yaml:"symbol"`
	Lots             float64 `yaml:"lots"`
	Window           int     `yaml:"window"`
	StopLossPoints   float64 `yaml:"stop_loss_points"`
	TakeProfitPoints float64 `yaml:"take_profit_points"`
}

// Config is one complete scenario definition. Identical configs replay
// identical scenarios tick for tick.
type Config struct {
	Broker         string   `yaml:"broker"`
	StartBalance   float64  `yaml:"start_balance"`
	RouterCapacity int      `yaml:"router_capacity"`
	OrderTTL       int64    `yaml:"order_ttl"`
	StopOutLevel   float64  `yaml:"stop_out_level"`
	SlippagePoints float64  `yaml:"slippage_points"`
	Monitor        []string `yaml:"monitor"`

	Latency  latency.Config `yaml:"latency"`
	Fees     FeeConfig      `yaml:"fees"`
	Source   SourceConfig   `yaml:"source"`
	Strategy StrategyConfig `yaml:"strategy"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to read scenario %q: %w", path, err)
	}

	cfg := &Config{
		StartBalance:   defaultStartBalance,
		RouterCapacity: defaultRouterCapacity,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse scenario %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker descriptor path is required")
	}
	if c.StartBalance <= 0 {
		return fmt.Errorf("start_balance must be positive, got %v", c.StartBalance)
	}
	switch c.Source.Kind {
	case "synthetic":
		if c.Source.Duration == "" {
			return fmt.Errorf("synthetic source requires a duration")
		}
		if _, err := time.ParseDuration(c.Source.Duration); err != nil {
			return fmt.Errorf("invalid source duration: %w", err)
		}
	case "historical", "duckdb":
		if c.Source.Path == "" {
			return fmt.Errorf("%s source requires a path", c.Source.Kind)
		}
		if _, err := c.Source.Window(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Source.Symbol == "" {
		return fmt.Errorf("source symbol is required")
	}
	for _, name := range c.Monitor {
		if _, err := monitorFlag(name); err != nil {
			return err
		}
	}
	return nil
}

// Window parses the From/To pair of a historical or duckdb source.
func (s SourceConfig) Window() (window [2]time.Time, err error) {
	window[0], err = time.Parse(time.DateTime, s.From)
	if err != nil {
		return window, fmt.Errorf("invalid source from: %w", err)
	}
	window[1], err = time.Parse(time.DateTime, s.To)
	if err != nil {
		return window, fmt.Errorf("invalid source to: %w", err)
	}
	if !window[1].After(window[0]) {
		return window, fmt.Errorf("source window is empty")
	}
	return window, nil
}

func (c *Config) FeeSchedule() fees.Schedule {
	return fees.Schedule{
		CommissionPerLot: fixed.FromFloat64(c.Fees.CommissionPerLot),
		SwapLongPerLot:   fixed.FromFloat64(c.Fees.SwapLongPerLot),
		SwapShortPerLot:  fixed.FromFloat64(c.Fees.SwapShortPerLot),
		MakerRate:        fixed.FromFloat64(c.Fees.MakerRate),
		TakerRate:        fixed.FromFloat64(c.Fees.TakerRate),
	}
}

// SimulatorOptions translates the scenario into sandbox options. A zero
// stop_out_level keeps the broker descriptor's default.
func (c *Config) SimulatorOptions() []sandbox.Option {
	opts := []sandbox.Option{
		sandbox.WithLatencyModel(c.Latency),
		sandbox.WithFeeSchedule(c.FeeSchedule()),
	}
	if c.OrderTTL > 0 {
		opts = append(opts, sandbox.WithOrderTTL(c.OrderTTL))
	}
	if c.StopOutLevel > 0 {
		opts = append(opts, sandbox.WithStopOutLevel(fixed.FromFloat64(c.StopOutLevel)))
	}
	if c.SlippagePoints > 0 {
		offset := fixed.FromFloat64(c.SlippagePoints)
		opts = append(opts, sandbox.WithSlippageHandler(func(common.Order, common.Tick) fixed.Point {
			return offset
		}))
	}
	return opts
}

func (c *Config) MonitorFlags() (middleware.MonitorFlags, error) {
	var flags middleware.MonitorFlags
	for _, name := range c.Monitor {
		flag, err := monitorFlag(name)
		if err != nil {
			return 0, err
		}
		flags |= flag
	}
	return flags, nil
}

func monitorFlag(name string) (middleware.MonitorFlags, error) {
	switch strings.ToLower(name) {
	case "all":
		return middleware.MonitorAll, nil
	case "ticks":
		return middleware.MonitorTicks, nil
	case "equity":
		return middleware.MonitorEquity, nil
	case "balance":
		return middleware.MonitorBalance, nil
	case "positions_opened":
		return middleware.MonitorPositionsOpened, nil
	case "positions_updated":
		return middleware.MonitorPositionsUpdated, nil
	case "positions_closed":
		return middleware.MonitorPositionsClosed, nil
	case "orders":
		return middleware.MonitorOrders, nil
	case "orders_accepted":
		return middleware.MonitorOrdersAccepted, nil
	case "orders_rejected":
		return middleware.MonitorOrdersRejected, nil
	case "orders_filled":
		return middleware.MonitorOrdersFilled, nil
	case "trades":
		return middleware.MonitorTrades, nil
	default:
		return 0, fmt.Errorf("unknown monitor stream %q", name)
	}
}
