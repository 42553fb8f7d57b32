package common

import (
	"log/slog"
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// AccountSnapshot is a point-in-time view of account state. MarginLevel is
// equity over used margin in percent and zero when no margin is in use.
type AccountSnapshot struct {
	Balance     fixed.Point `json:"balance"`
	Equity      fixed.Point `json:"equity"`
	MarginUsed  fixed.Point `json:"margin_used"`
	FreeMargin  fixed.Point `json:"free_margin"`
	MarginLevel fixed.Point `json:"margin_level"`
	TimeStamp   time.Time   `json:"ts"`
}

type Balance struct {
	Source      string              `json:"src,omitempty"`
	Account     string              `json:"account,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts,omitempty"`
	Value       fixed.Point         `json:"value"`
}

type Equity struct {
	Source      string              `json:"src,omitempty"`
	Account     string              `json:"account,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts,omitempty"`
	Value       fixed.Point         `json:"value"`
}

// ExecutionStats counts terminal pending-order outcomes for one scenario.
// Force-closed orders are synthetic end-of-run cleanup and are deliberately
// excluded from both executed and timed-out counts.
type ExecutionStats struct {
	OrdersSent        int `json:"orders_sent"`
	OrdersExecuted    int `json:"orders_executed"`
	OrdersRejected    int `json:"orders_rejected"`
	OrdersTimedOut    int `json:"orders_timed_out"`
	OrdersForceClosed int `json:"orders_force_closed"`
	OrdersCancelled   int `json:"orders_cancelled"`
}

func (s ExecutionStats) Print() {
	slog.Info("execution statistics",
		"orders_sent", s.OrdersSent,
		"orders_executed", s.OrdersExecuted,
		"orders_rejected", s.OrdersRejected,
		"orders_timed_out", s.OrdersTimedOut,
		"orders_force_closed", s.OrdersForceClosed,
		"orders_cancelled", s.OrdersCancelled,
	)
}
