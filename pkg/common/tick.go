package common

import (
	"time"

	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

type Tick struct {
	Ask       fixed.Point `json:"ask"`
	Bid       fixed.Point `json:"bid"`
	AskVolume fixed.Point `json:"ask_volume"`
	BidVolume fixed.Point `json:"bid_volume"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Spread returns the ask/bid distance of the quote.
func (t Tick) Spread() fixed.Point {
	return t.Ask.Sub(t.Bid)
}
