package common

import (
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

type OrderKind int
type OrderSide int
type OrderAction int
type RejectionReason int

const (
	OrderKindMarket OrderKind = iota
	OrderKindLimit
	OrderKindStop
	OrderKindStopLimit
)

func (k OrderKind) String() string {
	switch k {
	case OrderKindMarket:
		return "market"
	case OrderKindLimit:
		return "limit"
	case OrderKindStop:
		return "stop"
	case OrderKindStopLimit:
		return "stop-limit"
	default:
		return "unknown"
	}
}

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

func (s OrderSide) String() string {
	if s == OrderSideBuy {
		return "buy"
	}
	return "sell"
}

const (
	OrderActionOpen OrderAction = iota
	OrderActionClose
	OrderActionModify
)

func (a OrderAction) String() string {
	switch a {
	case OrderActionOpen:
		return "open"
	case OrderActionClose:
		return "close"
	case OrderActionModify:
		return "modify"
	default:
		return "unknown"
	}
}

const (
	RejectionNone RejectionReason = iota
	RejectionInsufficientMargin
	RejectionInvalidLotSize
	RejectionSymbolNotTradeable
	RejectionUnsupportedOrderType
	RejectionSymbolNotFound
	RejectionBrokerError
)

func (r RejectionReason) String() string {
	switch r {
	case RejectionNone:
		return "none"
	case RejectionInsufficientMargin:
		return "insufficient-margin"
	case RejectionInvalidLotSize:
		return "invalid-lot-size"
	case RejectionSymbolNotTradeable:
		return "symbol-not-tradeable"
	case RejectionUnsupportedOrderType:
		return "unsupported-order-type"
	case RejectionSymbolNotFound:
		return "symbol-not-found"
	case RejectionBrokerError:
		return "broker-error"
	default:
		return "unknown"
	}
}

func (r RejectionReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Order is the caller-owned request. Price carries the limit price for limit
// and stop-limit orders, StopPrice the trigger for stop and stop-limit
// orders. PositionId targets an existing position for close/modify actions.
type Order struct {
	Action     OrderAction `json:"action"`
	Kind       OrderKind   `json:"kind"`
	Side       OrderSide   `json:"side"`
	Lots       fixed.Point `json:"lots"`
	Price      fixed.Point `json:"price,omitempty"`
	StopPrice  fixed.Point `json:"stop_price,omitempty"`
	StopLoss   fixed.Point `json:"stop_loss,omitempty"`
	TakeProfit fixed.Point `json:"take_profit,omitempty"`
	PositionId PositionId  `json:"position_id,omitempty"`
	Comment    string      `json:"comment,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// OrderResult is returned synchronously from submission. A rejected result
// is a normal business outcome, not an error.
type OrderResult struct {
	OrderId       utility.OrderID `json:"order_id,omitempty"`
	Rejected      bool            `json:"rejected"`
	Reason        RejectionReason `json:"reason,omitempty"`
	Message       string          `json:"message,omitempty"`
	ExecutedPrice fixed.Point     `json:"executed_price,omitempty"`
	ExecutedLots  fixed.Point     `json:"executed_lots,omitempty"`
}

type OrderAccepted struct {
	OriginalOrder Order           `json:"original_order"`
	OrderId       utility.OrderID `json:"order_id"`
	DueTick       int64           `json:"due_tick"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderRejected struct {
	OriginalOrder Order           `json:"original_order"`
	OrderId       utility.OrderID `json:"order_id,omitempty"`
	Reason        RejectionReason `json:"reason"`
	Message       string          `json:"message,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderFilled struct {
	OriginalOrder Order           `json:"original_order"`
	OrderId       utility.OrderID `json:"order_id"`
	PositionId    PositionId      `json:"position_id,omitempty"`
	FillPrice     fixed.Point     `json:"fill_price"`
	FillLots      fixed.Point     `json:"fill_lots"`
	FillTick      int64           `json:"fill_tick"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
