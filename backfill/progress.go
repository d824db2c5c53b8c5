package backfill

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports backfill progress to a writer at a fixed
// article interval. Safe for use from concurrent batch workers.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	interval int

	done      int
	lastLine  int
	startedAt time.Time
}

// NewProgressTracker creates a tracker for total articles that writes a
// line to w every interval articles processed.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{w: w, total: total, interval: interval}
}

// Start resets the counters and the clock.
func (t *ProgressTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = 0
	t.lastLine = 0
	t.startedAt = time.Now()
}

// Increment records delta more articles processed, reporting if the
// interval has been crossed.
func (t *ProgressTracker) Increment(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return
	}

	t.done += delta
	if t.done > t.total {
		t.done = t.total
	}
	if t.done-t.lastLine >= t.interval {
		t.line()
		t.lastLine = t.done
	}
}

// Finish forces a final report at 100%.
func (t *ProgressTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return
	}
	t.done = t.total
	t.line()
	fmt.Fprintln(t.w)
}

// Elapsed returns the wall time since Start.
func (t *ProgressTracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return 0
	}
	return time.Since(t.startedAt)
}

// line writes one progress line. Callers hold the mutex.
func (t *ProgressTracker) line() {
	elapsed := time.Since(t.startedAt).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(t.done) / elapsed
	}
	var pct float64
	if t.total > 0 {
		pct = 100 * float64(t.done) / float64(t.total)
	}
	fmt.Fprintf(t.w, "\rProgress: %d/%d (%.1f%%) - %.1f articles/s", t.done, t.total, pct, rate)
}
