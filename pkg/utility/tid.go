package utility

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TraceID correlates every event of one logical operation across the bus.
// Ids are time-ordered snowflakes: milliseconds since the trace epoch in the
// high bits, then a per-process node id, then a rolling sequence.
type TraceID = uint64

const (
	traceNodeBits = 11
	traceSeqBits  = 12

	traceSeqMask  = 1<<traceSeqBits - 1
	traceNodeMask = 1<<traceNodeBits - 1

	traceTimeShift = traceNodeBits + traceSeqBits
	traceNodeShift = traceSeqBits
)

var traceEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

type traceGenerator struct {
	counter atomic.Uint64
	node    uint64
}

var traceSource = &traceGenerator{node: uint64(uuid.New().ID()) & traceNodeMask}

func CreateTraceID() TraceID {
	return traceSource.next()
}

func (g *traceGenerator) next() TraceID {
	millis := uint64(time.Now().UnixMilli() - traceEpoch)
	seq := g.counter.Add(1) & traceSeqMask

	// Sequence rollover inside one millisecond; wait the clock out so ids
	// stay strictly ordered.
	if seq == 0 {
		time.Sleep(time.Millisecond)
		millis = uint64(time.Now().UnixMilli() - traceEpoch)
	}

	return (millis << traceTimeShift) | (g.node << traceNodeShift) | seq
}

// ParseTraceID splits a trace id back into its components.
func ParseTraceID(id TraceID) (timestamp time.Time, node, seq uint64) {
	seq = id & traceSeqMask
	node = (id >> traceNodeShift) & traceNodeMask
	timestamp = time.UnixMilli(traceEpoch + int64(id>>traceTimeShift))
	return
}
