package common

import (
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

type PositionSide int
type PositionStatus string
type PositionId = int64
type CloseReason string

const (
	PositionSideLong PositionSide = iota
	PositionSideShort
)

func (s PositionSide) String() string {
	if s == PositionSideLong {
		return "long"
	}
	return "short"
}

// Sign returns +1 for long, -1 for short. Profit formulas multiply the price
// move by this factor.
func (s PositionSide) Sign() fixed.Point {
	if s == PositionSideLong {
		return fixed.One
	}
	return fixed.NegOne
}

const (
	PositionStatusOpen            PositionStatus = "open"
	PositionStatusPartiallyClosed PositionStatus = "partially-closed"
	PositionStatusClosed          PositionStatus = "closed"
)

const (
	CloseReasonNone        CloseReason = ""
	CloseReasonManual      CloseReason = "manual"
	CloseReasonStopLoss    CloseReason = "stop-loss"
	CloseReasonTakeProfit  CloseReason = "take-profit"
	CloseReasonScenarioEnd CloseReason = "scenario-end"
	CloseReasonStopOut     CloseReason = "stop-out"
)

// Position is owned by the portfolio from fill until close. Lots shrink on
// partial closes while the id and the pro-rated fee history survive.
type Position struct {
	Id           PositionId     `json:"id"`
	Status       PositionStatus `json:"status"`
	Side         PositionSide   `json:"side"`
	Lots         fixed.Point    `json:"lots"`
	OriginalLots fixed.Point    `json:"original_lots"`
	EntryPrice   fixed.Point    `json:"entry_price"`
	EntryTime    time.Time      `json:"entry_time"`
	EntryTick    int64          `json:"entry_tick"`
	EntryKind    OrderKind      `json:"entry_kind"`
	StopLoss     fixed.Point    `json:"stop_loss,omitempty"`
	TakeProfit   fixed.Point    `json:"take_profit,omitempty"`
	Fees         []Fee          `json:"fees,omitempty"`
	CurrentPrice fixed.Point    `json:"current_price"`
	GrossProfit  fixed.Point    `json:"gross_profit"`
	NetProfit    fixed.Point    `json:"net_profit"`
	Margin       fixed.Point    `json:"margin"`
	CloseReason  CloseReason    `json:"close_reason,omitempty"`

	Source        string              `json:"src,omitempty"`
	Symbol        string              `json:"symbol,omitempty"`
	ExecutionID   utility.ExecutionID `json:"eid,omitempty"`
	TraceID       utility.TraceID     `json:"tid,omitempty"`
	OrderTraceIDs []utility.TraceID   `json:"order_tid,omitempty"`
	TimeStamp     time.Time           `json:"ts"`
}

// TotalFees sums every accumulated fee on the position.
func (p Position) TotalFees() fixed.Point {
	return SumFees(p.Fees)
}
