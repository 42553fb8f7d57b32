package historical

import (
	"fmt"
	"time"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/datasource"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const (
	invalidIndex            = -1
	tickReaderComponentName = "datasource.historical.reader"
)

// BinaryTick is the on-disk record layout: nanosecond timestamp followed by
// four float64 fields. Files are expected sorted by timestamp.
type BinaryTick struct {
	TimeStamp int64
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

func (b BinaryTick) ToTick(tick *common.Tick) {
	tick.TimeStamp = time.Unix(0, b.TimeStamp)
	tick.Ask = fixed.FromFloat64(b.Ask)
	tick.Bid = fixed.FromFloat64(b.Bid)
	tick.AskVolume = fixed.FromFloat64(b.AskVolume)
	tick.BidVolume = fixed.FromFloat64(b.BidVolume)
}

// TickReader streams ticks of one symbol from a binary source, restricted to
// the [from, to] window. The first read binary-searches the start offset.
type TickReader struct {
	source *Source[BinaryTick]

	symbol string
	from   int64
	to     int64
	idx    int64
}

func NewTickReader(source *Source[BinaryTick], symbol string, from, to time.Time) *TickReader {
	return &TickReader{
		source: source,
		symbol: symbol,
		from:   from.UnixNano(),
		to:     to.UnixNano(),
		idx:    invalidIndex,
	}
}

func (t *TickReader) GetNext() (common.Tick, error) {
	var tick common.Tick
	var binTick BinaryTick

	if t.idx == invalidIndex {
		if err := t.lookupStartIndex(); err != nil {
			return tick, err
		}
	}

	if err := t.source.Read(t.idx, &binTick); err != nil {
		return tick, err
	}
	t.idx++

	if binTick.TimeStamp < t.from {
		return tick, fmt.Errorf("timestamp %d precedes the requested range", binTick.TimeStamp)
	}
	if binTick.TimeStamp > t.to {
		return tick, datasource.ErrEof
	}

	binTick.ToTick(&tick)

	tick.Source = tickReaderComponentName
	tick.Symbol = t.symbol
	tick.ExecutionId = utility.GetExecutionID()
	tick.TraceID = utility.CreateTraceID()

	return tick, nil
}

func (t *TickReader) lookupStartIndex() error {
	entryCount, err := t.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}
	if entryCount == 0 {
		return fmt.Errorf("entry count is zero")
	}

	var entry BinaryTick

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := t.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < t.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return fmt.Errorf("no entry found with timestamp >= from")
	}

	t.idx = low
	return nil
}
