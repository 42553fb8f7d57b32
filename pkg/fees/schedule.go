package fees

import (
	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// Schedule holds a broker's trading cost parameters. All amounts are quoted
// in account currency. A zero-value Schedule charges nothing.
type Schedule struct {
	// CommissionPerLot is charged per lot per side (entry and exit).
	CommissionPerLot fixed.Point
	// SwapLongPerLot and SwapShortPerLot accrue per lot per night held.
	// Negative values credit the account.
	SwapLongPerLot  fixed.Point
	SwapShortPerLot fixed.Point
	// MakerRate and TakerRate are fractions of notional value. Liquidity
	// providing entries (limit, stop-limit) pay the maker rate, liquidity
	// taking entries (market, stop) the taker rate.
	MakerRate fixed.Point
	TakerRate fixed.Point
}

// SpreadFee prices the bid/ask spread paid on entry.
func SpreadFee(spec broker.SymbolSpec, tick common.Tick, lots fixed.Point) common.Fee {
	return common.Fee{
		Type:   common.FeeTypeSpread,
		Amount: tick.Spread().Mul(spec.ContractSize).Mul(lots),
		Status: common.FeeStatusApplied,
	}
}

// CommissionFee prices one side of the round trip.
func (s Schedule) CommissionFee(lots fixed.Point) common.Fee {
	return common.Fee{
		Type:   common.FeeTypeCommission,
		Amount: s.CommissionPerLot.Mul(lots),
		Status: common.FeeStatusApplied,
	}
}

// SwapFee prices the overnight financing for nights held. Swap accrues
// deferred while the position is open and settles when it closes.
func (s Schedule) SwapFee(side common.PositionSide, lots fixed.Point, nights int64) common.Fee {
	rate := s.SwapLongPerLot
	if side == common.PositionSideShort {
		rate = s.SwapShortPerLot
	}
	return common.Fee{
		Type:   common.FeeTypeSwap,
		Amount: rate.Mul(lots).MulInt64(nights),
		Status: common.FeeStatusDeferred,
	}
}

// MakerTakerRate selects the exchange fee rate by the kind of order that
// opened the position.
func (s Schedule) MakerTakerRate(entryKind common.OrderKind) fixed.Point {
	switch entryKind {
	case common.OrderKindLimit, common.OrderKindStopLimit:
		return s.MakerRate
	default:
		return s.TakerRate
	}
}

// MakerTakerFee prices the exchange fee on the position's notional value.
func (s Schedule) MakerTakerFee(entryKind common.OrderKind, spec broker.SymbolSpec, price, lots fixed.Point) common.Fee {
	notional := price.Mul(spec.ContractSize).Mul(lots)
	return common.Fee{
		Type:   common.FeeTypeMakerTaker,
		Amount: notional.Mul(s.MakerTakerRate(entryKind)),
		Status: common.FeeStatusApplied,
	}
}
