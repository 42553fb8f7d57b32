package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const testDescriptor = `{
	"broker_info": {
		"company": "Sandbox Capital",
		"leverage": 100,
		"hedging_allowed": true,
		"order_kinds": ["market", "limit", "stop"]
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

func TestParse(t *testing.T) {
	d, err := Parse([]byte(testDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "Sandbox Capital", d.Company())
	assert.Equal(t, "USD", d.Currency())
	assert.Equal(t, "100", d.Leverage().String())
	assert.True(t, d.HedgingAllowed())
	assert.Equal(t, "50", d.StopOutLevel().String())

	assert.True(t, d.SupportsOrderKind(common.OrderKindMarket))
	assert.True(t, d.SupportsOrderKind(common.OrderKindLimit))
	assert.False(t, d.SupportsOrderKind(common.OrderKindStopLimit))
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"zero leverage", `{"broker_info":{"leverage":0},"account_info":{"currency":"USD"},"symbols":{"X":{"volume_min":1,"volume_max":2,"volume_step":1,"tick_size":0.1,"contract_size":1,"digits":1}}}`},
		{"no symbols", `{"broker_info":{"leverage":100},"account_info":{"currency":"USD"},"symbols":{}}`},
		{"no currency", `{"broker_info":{"leverage":100},"account_info":{},"symbols":{"X":{"volume_min":1,"volume_max":2,"volume_step":1,"tick_size":0.1,"contract_size":1,"digits":1}}}`},
		{"bad volume bounds", `{"broker_info":{"leverage":100},"account_info":{"currency":"USD"},"symbols":{"X":{"volume_min":2,"volume_max":1,"volume_step":1,"tick_size":0.1,"contract_size":1,"digits":1}}}`},
		{"unknown order kind", `{"broker_info":{"leverage":100,"order_kinds":["teleport"]},"account_info":{"currency":"USD"},"symbols":{"X":{"volume_min":1,"volume_max":2,"volume_step":1,"tick_size":0.1,"contract_size":1,"digits":1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			require.ErrorIs(t, err, ErrMalformedDescriptor)
		})
	}
}

func TestDescriptor_Symbol(t *testing.T) {
	d, err := Parse([]byte(testDescriptor))
	require.NoError(t, err)

	spec, err := d.Symbol("eurusd")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", spec.Name)
	assert.True(t, spec.TradeAllowed)
	assert.Equal(t, "1.00000", spec.TickValue().String())

	_, err = d.Symbol("XAUUSD")
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestSymbolSpec_CheckLots(t *testing.T) {
	d, err := Parse([]byte(testDescriptor))
	require.NoError(t, err)
	spec, err := d.Symbol("EURUSD")
	require.NoError(t, err)

	tests := []struct {
		name    string
		lots    fixed.Point
		wantErr bool
	}{
		{"minimum", fixed.FromFloat64(0.01), false},
		{"aligned", fixed.FromFloat64(0.10), false},
		{"maximum", fixed.FromFloat64(100), false},
		{"zero", fixed.Zero, true},
		{"negative", fixed.FromFloat64(-0.1), true},
		{"below minimum", fixed.FromFloat64(0.005), true},
		{"above maximum", fixed.FromFloat64(100.01), true},
		{"step misaligned", fixed.FromFloat64(0.015), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := spec.CheckLots(tt.lots)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLotSize)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
