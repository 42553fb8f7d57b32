package common

import (
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
)

type PendingStatus string

const (
	PendingStatusPending     PendingStatus = "pending"
	PendingStatusFilled      PendingStatus = "filled"
	PendingStatusRejected    PendingStatus = "rejected"
	PendingStatusTimedOut    PendingStatus = "timed-out"
	PendingStatusForceClosed PendingStatus = "force-closed"
	PendingStatusCancelled   PendingStatus = "cancelled"
)

// Terminal reports whether the status is final. A pending order makes
// exactly one transition out of PendingStatusPending.
func (s PendingStatus) Terminal() bool {
	return s != PendingStatusPending
}

// PendingOrder is an accepted order waiting in the execution queue. DueTick
// is SubmitTick plus the two simulated delay components; the order cannot
// resolve before it.
type PendingOrder struct {
	OrderId    utility.OrderID `json:"order_id"`
	Order      Order           `json:"order"`
	SubmitTick int64           `json:"submit_tick"`
	ApiDelay   int64           `json:"api_delay"`
	ExecDelay  int64           `json:"exec_delay"`
	DueTick    int64           `json:"due_tick"`
	Status     PendingStatus   `json:"status"`
	Reason     RejectionReason `json:"reason,omitempty"`
	SubmitTime time.Time       `json:"submit_time"`

	// Armed marks a stop-limit order whose stop trigger has been crossed.
	// From then on it rests as a limit order at Order.Price.
	Armed bool `json:"armed,omitempty"`
}
