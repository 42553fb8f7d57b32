package common

import (
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

type CloseType string

const (
	CloseTypeFull    CloseType = "full"
	CloseTypePartial CloseType = "partial"
)

// TradeRecord is the immutable audit record produced on every close, full or
// partial. It carries everything reporting needs without a symbol lookup.
type TradeRecord struct {
	PositionId   PositionId   `json:"position_id"`
	Side         PositionSide `json:"side"`
	Lots         fixed.Point  `json:"lots"`
	EntryPrice   fixed.Point  `json:"entry_price"`
	ExitPrice    fixed.Point  `json:"exit_price"`
	EntryTime    time.Time    `json:"entry_time"`
	ExitTime     time.Time    `json:"exit_time"`
	EntryTick    int64        `json:"entry_tick"`
	ExitTick     int64        `json:"exit_tick"`
	Digits       int          `json:"digits"`
	TickValue    fixed.Point  `json:"tick_value"`
	ContractSize fixed.Point  `json:"contract_size"`
	Fees         []Fee        `json:"fees,omitempty"`
	GrossProfit  fixed.Point  `json:"gross_profit"`
	NetProfit    fixed.Point  `json:"net_profit"`
	CloseType    CloseType    `json:"close_type"`
	CloseReason  CloseReason  `json:"close_reason"`
	EntryKind    OrderKind    `json:"entry_kind"`
	Currency     string       `json:"currency"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// TotalFees sums the itemized fees on the record.
func (t TradeRecord) TotalFees() fixed.Point {
	return SumFees(t.Fees)
}
