package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

func equityAt(value float64, at time.Time) common.Equity {
	return common.Equity{Value: fixed.FromFloat64(value), TimeStamp: at}
}

func TestAudit_EquitySnapshotThrottle(t *testing.T) {
	audit := NewAudit()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	audit.OnEquity(ctx, equityAt(10000, base))
	audit.OnEquity(ctx, equityAt(10001, base.Add(10*time.Second)))
	audit.OnEquity(ctx, equityAt(10002, base.Add(30*time.Second)))
	audit.OnEquity(ctx, equityAt(10003, base.Add(2*time.Minute)))

	assert.Len(t, audit.equities, 2, "snapshots inside the interval should be dropped")
}

func TestAudit_GenerateReport(t *testing.T) {
	audit := NewAudit()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	audit.OnEquity(ctx, equityAt(10000, base))
	audit.OnEquity(ctx, equityAt(10100, base.Add(24*time.Hour)))
	audit.OnEquity(ctx, equityAt(10050, base.Add(48*time.Hour)))

	audit.OnTrade(ctx, common.TradeRecord{
		NetProfit: fixed.FromFloat64(100),
		EntryTime: base,
		ExitTime:  base.Add(2 * time.Hour),
		Fees: []common.Fee{
			{Type: common.FeeTypeSpread, Amount: fixed.Two, Status: common.FeeStatusApplied},
			{Type: common.FeeTypeCommission, Amount: fixed.One, Status: common.FeeStatusApplied},
		},
	})
	audit.OnTrade(ctx, common.TradeRecord{
		NetProfit: fixed.FromFloat64(-50),
		EntryTime: base.Add(24 * time.Hour),
		ExitTime:  base.Add(26 * time.Hour),
		Fees: []common.Fee{
			{Type: common.FeeTypeSpread, Amount: fixed.Two, Status: common.FeeStatusApplied},
		},
	})

	report := audit.GenerateReport()

	assert.Equal(t, 2, report.TotalTrades)
	assert.Equal(t, 1, report.WinningTrades)
	assert.Equal(t, 1, report.LosingTrades)
	assert.True(t, report.WinRate.Eq(fixed.FromFloat64(50)), "got %s", report.WinRate)
	assert.True(t, report.ProfitFactor.Eq(fixed.Two), "got %s", report.ProfitFactor)
	assert.True(t, report.Expectancy.Eq(fixed.FromFloat64(25)), "got %s", report.Expectancy)
	assert.Equal(t, 2*time.Hour, report.AverageTradeDuration)

	assert.True(t, report.SpreadCosts.Eq(fixed.FromFloat64(4)), "got %s", report.SpreadCosts)
	assert.True(t, report.CommissionCosts.Eq(fixed.One))
	assert.True(t, report.TotalCosts.Eq(fixed.FromFloat64(5)))

	// Equity ran 10000 -> 10100 -> 10050: 0.5 percent total, drawdown
	// (10100-10050)/10100.
	assert.True(t, report.TotalProfit.Eq(fixed.FromFloat64(0.50)), "got %s", report.TotalProfit)
	expectedDrawdown := fixed.FromFloat64(50).Div(fixed.FromFloat64(10100)).MulInt64(100).Rescale(2)
	assert.True(t, report.MaxDrawdown.Eq(expectedDrawdown), "got %s want %s", report.MaxDrawdown, expectedDrawdown)
}

func TestAudit_EmptyRun(t *testing.T) {
	audit := NewAudit()
	report := audit.GenerateReport()
	require.Equal(t, 0, report.TotalTrades)
}
