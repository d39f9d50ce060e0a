package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/docchat/core"
)

// ProgressTracker renders batch progress from observer snapshots.
// Pass its Observe method to WithObserver.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	settled   int
	failed    int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
func NewProgressTracker(writer io.Writer) *ProgressTracker {
	return &ProgressTracker{writer: writer}
}

// Observe consumes a record snapshot. The first snapshot of a batch starts
// the clock; every change in the settled count is reported.
func (p *ProgressTracker) Observe(records []core.FileRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	settled, failed := 0, 0
	queued := false
	for _, r := range records {
		switch r.Status() {
		case core.FileStatusQueued:
			queued = true
		case core.FileStatusProcessed:
			settled++
		case core.FileStatusErrored:
			settled++
			failed++
		}
	}

	if queued || !p.started {
		p.startTime = time.Now()
		p.started = true
		p.total = len(records)
		p.settled = 0
		p.failed = 0
	}

	if settled == p.settled {
		return
	}
	p.settled = settled
	p.failed = failed
	p.report()

	if p.settled == p.total {
		fmt.Fprintln(p.writer) // Print newline after final progress
	}
}

// Elapsed returns the time elapsed since the current batch started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.settled) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rExtracting: %d/%d (%.1f%%) - %d failed - %s",
		p.settled, p.total, percentage, p.failed, time.Since(p.startTime).Round(time.Millisecond))
}
