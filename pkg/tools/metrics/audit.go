package metrics

import (
	"context"
	"time"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const (
	equitySnapshotInterval = time.Minute
)

// Audit collects equity snapshots and closed trades over a scenario run.
// Wire OnEquity and OnTrade into the router, then call GenerateReport once
// the run is over.
type Audit struct {
	equities []common.Equity
	trades   []common.TradeRecord
}

func NewAudit() *Audit {
	return &Audit{}
}

func (a *Audit) OnEquity(_ context.Context, equity common.Equity) {
	if len(a.equities) == 0 || equity.TimeStamp.Sub(a.equities[len(a.equities)-1].TimeStamp) >= equitySnapshotInterval {
		a.equities = append(a.equities, equity)
	}
}

func (a *Audit) OnTrade(_ context.Context, trade common.TradeRecord) {
	a.trades = append(a.trades, trade)
}

func (a *Audit) GenerateReport() Report {
	report := Report{}
	if len(a.equities) == 0 {
		return report
	}

	auditedDays := a.dayCount()
	year := fixed.FromInt64(36500, 2)

	report.InitialEquity = a.equities[0].Value
	report.StartDate = a.equities[0].TimeStamp
	report.FinalEquity = a.equities[len(a.equities)-1].Value
	report.EndDate = a.equities[len(a.equities)-1].TimeStamp

	report.TotalProfit = report.FinalEquity.Div(report.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(2)
	if auditedDays > 0 && report.InitialEquity.Gt(fixed.Zero) && report.FinalEquity.Gt(fixed.Zero) {
		ratio := report.FinalEquity.Div(report.InitialEquity)
		exponent := year.DivInt64(int64(auditedDays))
		report.AnnualizedReturn = ratio.Pow(exponent).Sub(fixed.One).MulInt64(100).Rescale(2)
	} else {
		report.AnnualizedReturn = fixed.Zero
	}

	maxEquity := report.InitialEquity
	for _, eq := range a.equities {
		if eq.Value.Gt(maxEquity) {
			maxEquity = eq.Value
		}
		drawdown := maxEquity.Sub(eq.Value).Div(maxEquity)
		if drawdown.Gt(report.MaxDrawdown) {
			report.MaxDrawdown = drawdown
		}
	}

	var (
		totalDuration time.Duration
		totalProfit   fixed.Point
		totalLoss     fixed.Point
	)
	for _, trade := range a.trades {
		report.TotalTrades++

		if !trade.EntryTime.IsZero() && !trade.ExitTime.IsZero() && trade.ExitTime.After(trade.EntryTime) {
			totalDuration += trade.ExitTime.Sub(trade.EntryTime)
		}

		report.SpreadCosts = report.SpreadCosts.Add(common.SumFeesByType(trade.Fees, common.FeeTypeSpread))
		report.CommissionCosts = report.CommissionCosts.Add(common.SumFeesByType(trade.Fees, common.FeeTypeCommission))
		report.SwapCosts = report.SwapCosts.Add(common.SumFeesByType(trade.Fees, common.FeeTypeSwap))
		report.MakerTakerCosts = report.MakerTakerCosts.Add(common.SumFeesByType(trade.Fees, common.FeeTypeMakerTaker))

		if trade.NetProfit.Gt(fixed.Zero) {
			totalProfit = totalProfit.Add(trade.NetProfit)
			report.WinningTrades++
		} else if trade.NetProfit.Lte(fixed.Zero) {
			totalLoss = totalLoss.Add(trade.NetProfit.Neg())
			report.LosingTrades++
		}
	}
	report.TotalCosts = report.SpreadCosts.Add(report.CommissionCosts).Add(report.SwapCosts).Add(report.MakerTakerCosts)

	if report.WinningTrades > 0 {
		report.AverageWin = totalProfit.DivInt64(int64(report.WinningTrades))
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss.DivInt64(int64(report.LosingTrades))
	}
	if totalLoss.Gt(fixed.Zero) {
		report.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if report.AverageLoss.Gt(fixed.Zero) {
		report.RiskRewardRatio = report.AverageWin.Div(report.AverageLoss)
	}
	if report.TotalTrades > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt64(int64(report.TotalTrades))
		report.AverageTradeDuration = totalDuration / time.Duration(report.TotalTrades)
		report.WinRate = fixed.FromInt64(int64(report.WinningTrades), 0).DivInt64(int64(report.TotalTrades)).MulInt64(100).Rescale(2)
	}
	if report.MaxDrawdown.Gt(fixed.Zero) {
		report.RecoveryFactor = report.TotalProfit.Div(report.MaxDrawdown)
	}
	report.MaxDrawdown = report.MaxDrawdown.MulInt64(100).Rescale(2)

	dailyReturns := a.dailyReturns()
	meanReturn := fixed.Mean(dailyReturns)
	vol := fixed.StdDev(dailyReturns, meanReturn)

	if !meanReturn.IsZero() && !vol.IsZero() {
		report.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report
}

func (a *Audit) dayCount() int {
	if len(a.equities) < 2 {
		return 1
	}
	start := a.equities[0].TimeStamp
	end := a.equities[len(a.equities)-1].TimeStamp
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var dailyReturns []fixed.Point
	if len(a.equities) < 2 {
		return dailyReturns
	}

	var (
		prevDate   = a.equities[0].TimeStamp.Truncate(24 * time.Hour)
		prevEquity = a.equities[0].Value
	)

	for _, eq := range a.equities[1:] {
		currDate := eq.TimeStamp.Truncate(24 * time.Hour)

		if currDate.After(prevDate) {
			ret := eq.Value.Div(prevEquity).Sub(fixed.One)
			dailyReturns = append(dailyReturns, ret)

			prevDate = currDate
			prevEquity = eq.Value
		}
	}

	return dailyReturns
}
