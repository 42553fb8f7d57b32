package sandbox

import (
	"log/slog"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// Statistics summarizes the closed trades of one scenario. Every trade
// record counts once, so a position closed in three parts contributes three
// trades.
type Statistics struct {
	TotalTrades   int         `json:"total_trades"`
	WinningTrades int         `json:"winning_trades"`
	LosingTrades  int         `json:"losing_trades"`
	LongTrades    int         `json:"long_trades"`
	ShortTrades   int         `json:"short_trades"`
	WinRate       fixed.Point `json:"win_rate"`
	ProfitFactor  fixed.Point `json:"profit_factor"`
	GrossWins     fixed.Point `json:"gross_wins"`
	GrossLosses   fixed.Point `json:"gross_losses"`
	NetProfit     fixed.Point `json:"net_profit"`
	MaxDrawdown   fixed.Point `json:"max_drawdown"`
}

// CostBreakdown itemizes every fee charged so far, including fees still
// attached to open positions.
type CostBreakdown struct {
	Spread     fixed.Point `json:"spread"`
	Commission fixed.Point `json:"commission"`
	Swap       fixed.Point `json:"swap"`
	MakerTaker fixed.Point `json:"maker_taker"`
	Total      fixed.Point `json:"total"`
}

func buildStatistics(p *Portfolio) Statistics {
	stats := Statistics{
		GrossWins:   fixed.Zero,
		GrossLosses: fixed.Zero,
		NetProfit:   fixed.Zero,
		WinRate:     fixed.Zero,
	}

	for _, record := range p.records {
		stats.TotalTrades++
		if record.Side == common.PositionSideLong {
			stats.LongTrades++
		} else {
			stats.ShortTrades++
		}

		stats.NetProfit = stats.NetProfit.Add(record.NetProfit)
		if record.NetProfit.IsPos() {
			stats.WinningTrades++
			stats.GrossWins = stats.GrossWins.Add(record.NetProfit)
		} else if record.NetProfit.IsNeg() {
			stats.LosingTrades++
			stats.GrossLosses = stats.GrossLosses.Add(record.NetProfit.Abs())
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = fixed.FromInt(stats.WinningTrades, 0).
			Div(fixed.FromInt(stats.TotalTrades, 0)).
			Mul(fixed.Hundred)
	}
	if stats.GrossLosses.IsPos() {
		stats.ProfitFactor = stats.GrossWins.Div(stats.GrossLosses)
	} else {
		// A lossless run has no ratio to take; report the gross wins so a
		// profitable scenario never shows factor zero.
		stats.ProfitFactor = stats.GrossWins
	}
	stats.MaxDrawdown = p.maxDrawdown.Mul(fixed.Hundred)

	return stats
}

func buildCostBreakdown(p *Portfolio) CostBreakdown {
	breakdown := CostBreakdown{
		Spread:     fixed.Zero,
		Commission: fixed.Zero,
		Swap:       fixed.Zero,
		MakerTaker: fixed.Zero,
		Total:      fixed.Zero,
	}

	accumulate := func(fs []common.Fee) {
		for _, fee := range fs {
			switch fee.Type {
			case common.FeeTypeSpread:
				breakdown.Spread = breakdown.Spread.Add(fee.Amount)
			case common.FeeTypeCommission:
				breakdown.Commission = breakdown.Commission.Add(fee.Amount)
			case common.FeeTypeSwap:
				breakdown.Swap = breakdown.Swap.Add(fee.Amount)
			case common.FeeTypeMakerTaker:
				breakdown.MakerTaker = breakdown.MakerTaker.Add(fee.Amount)
			}
			breakdown.Total = breakdown.Total.Add(fee.Amount)
		}
	}

	for _, record := range p.records {
		accumulate(record.Fees)
	}
	for _, position := range p.open {
		accumulate(position.Fees)
	}

	return breakdown
}

func (s Statistics) Print() {
	slog.Info("scenario statistics",
		"total_trades", s.TotalTrades,
		"winning_trades", s.WinningTrades,
		"losing_trades", s.LosingTrades,
		"win_rate_pct", s.WinRate,
		"profit_factor", s.ProfitFactor,
		"net_profit", s.NetProfit,
		"max_drawdown_pct", s.MaxDrawdown,
	)
}

func (c CostBreakdown) Print() {
	slog.Info("trading costs",
		"spread", c.Spread,
		"commission", c.Commission,
		"swap", c.Swap,
		"maker_taker", c.MakerTaker,
		"total", c.Total,
	)
}
