package services

import (
	"fmt"
	"time"

	"github.com/codahale/hdrhistogram"

	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

// Item durations are tracked in milliseconds, up to one hour.
const (
	minTrackedMS = 1
	maxTrackedMS = int64(time.Hour / time.Millisecond)
)

type DurationStats struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
}

func (d DurationStats) String() string {
	return fmt.Sprintf("%d item(s), p50 %s, p95 %s, max %s", d.Count, d.P50, d.P95, d.Max)
}

// durationStats summarises how long the backend took for the items that
// reached it. It reports false when none did.
func durationStats(results []scheduler.Result) (DurationStats, bool) {
	h := hdrhistogram.New(minTrackedMS, maxTrackedMS, 3)
	for _, r := range results {
		if r.Duration <= 0 {
			continue
		}
		ms := r.Duration.Milliseconds()
		if ms < minTrackedMS {
			ms = minTrackedMS
		}
		if ms > maxTrackedMS {
			ms = maxTrackedMS
		}
		_ = h.RecordValue(ms) // clamped to the trackable range above
	}

	if h.TotalCount() == 0 {
		return DurationStats{}, false
	}
	return DurationStats{
		Count: h.TotalCount(),
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Millisecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Millisecond,
		Max:   time.Duration(h.Max()) * time.Millisecond,
	}, true
}
