package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantarch/tradesim/pkg/middleware"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

func writeScenario(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const validScenario = `
broker: testdata/broker.json
start_balance: 25000
order_ttl: 500
slippage_points: 0.00002
monitor: ["positions_closed", "orders_rejected"]
latency:
  api_seed: 12345
  exec_seed: 67890
  api_min: 1
  api_max: 3
  exec_min: 2
  exec_max: 5
fees:
  commission_per_lot: 3.5
  swap_long_per_lot: -0.8
  swap_short_per_lot: 0.2
source:
  kind: synthetic
  symbol: EURUSD
  seed: 42
  duration: 1h
  drift: 0.02
  volatility: 0.08
strategy:
  symbol: EURUSD
  lots: 0.1
  window: 30
  stop_loss_points: 0.0010
  take_profit_points: 0.0020
`

func TestLoad_ValidScenario(t *testing.T) {
	cfg, err := Load(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "testdata/broker.json", cfg.Broker)
	assert.Equal(t, 25000.0, cfg.StartBalance)
	assert.Equal(t, defaultRouterCapacity, cfg.RouterCapacity)
	assert.Equal(t, int64(500), cfg.OrderTTL)
	assert.Equal(t, int64(12345), cfg.Latency.ApiSeed)
	assert.Equal(t, int64(5), cfg.Latency.ExecMax)
	assert.Equal(t, "synthetic", cfg.Source.Kind)
	assert.Equal(t, 30, cfg.Strategy.Window)
}

func TestLoad_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name     string
		contents string
	}{
		{"missing broker", `
start_balance: 100
source: {kind: synthetic, symbol: EURUSD, duration: 1h}
`},
		{"negative balance", `
broker: b.json
start_balance: -5
source: {kind: synthetic, symbol: EURUSD, duration: 1h}
`},
		{"unknown source kind", `
broker: b.json
source: {kind: csv, symbol: EURUSD}
`},
		{"synthetic without duration", `
broker: b.json
source: {kind: synthetic, symbol: EURUSD}
`},
		{"historical without path", `
broker: b.json
source: {kind: historical, symbol: EURUSD, from: "2024-01-01 00:00:00", to: "2024-02-01 00:00:00"}
`},
		{"missing symbol", `
broker: b.json
source: {kind: synthetic, duration: 1h}
`},
		{"unknown monitor stream", `
broker: b.json
monitor: ["everything"]
source: {kind: synthetic, symbol: EURUSD, duration: 1h}
`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, tc.contents))
			assert.Error(t, err)
		})
	}
}

func TestSourceConfig_Window(t *testing.T) {
	source := SourceConfig{From: "2024-01-01 00:00:00", To: "2024-02-01 00:00:00"}
	window, err := source.Window()
	require.NoError(t, err)
	assert.True(t, window[1].After(window[0]))

	source.To = source.From
	_, err = source.Window()
	assert.Error(t, err)
}

func TestConfig_FeeSchedule(t *testing.T) {
	cfg, err := Load(writeScenario(t, validScenario))
	require.NoError(t, err)

	schedule := cfg.FeeSchedule()
	assert.True(t, schedule.CommissionPerLot.Eq(fixed.FromFloat64(3.5)))
	assert.True(t, schedule.SwapLongPerLot.Eq(fixed.FromFloat64(-0.8)))
	assert.True(t, schedule.MakerRate.IsZero())
}

func TestConfig_MonitorFlags(t *testing.T) {
	cfg, err := Load(writeScenario(t, validScenario))
	require.NoError(t, err)

	flags, err := cfg.MonitorFlags()
	require.NoError(t, err)
	assert.NotZero(t, flags&middleware.MonitorPositionsClosed)
	assert.NotZero(t, flags&middleware.MonitorOrdersRejected)
	assert.Zero(t, flags&middleware.MonitorTicks)
}

func TestConfig_SimulatorOptionCount(t *testing.T) {
	cfg, err := Load(writeScenario(t, validScenario))
	require.NoError(t, err)

	// latency + fees + ttl + slippage; no stop-out override configured.
	assert.Len(t, cfg.SimulatorOptions(), 4)
}
