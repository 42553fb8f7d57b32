package bus

import (
	"fmt"
	"log/slog"
	"time"
)

// Statistics summarizes one router run. DroppedEvents counts posts refused on
// a full queue; a deterministic replay is only trustworthy when the run is
// clean, since a dropped fill or tick changes every downstream number.
type Statistics struct {
	RunTime       time.Duration
	PostCount     uint64
	DroppedEvents uint64
	DispatchCount uint64
	DispatchFails uint64
	Throughput    float64
}

// Clean reports whether every posted event reached its handler.
func (s Statistics) Clean() bool {
	return s.DroppedEvents == 0 && s.DispatchFails == 0
}

func (s Statistics) Print() {
	attrs := []any{
		"run_time", fmt.Sprintf("%.2fs", s.RunTime.Seconds()),
		"post_count", s.PostCount,
		"dropped_events", s.DroppedEvents,
		"dispatch_count", s.DispatchCount,
		"dispatch_fails", s.DispatchFails,
		"throughput", fmt.Sprintf("%.2f", s.Throughput),
	}
	if !s.Clean() {
		slog.Warn("router lost events", attrs...)
		return
	}
	slog.Info("router statistics", attrs...)
}
