package rebuild

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressTracker writes a single updating status line while a rebuild runs.
type ProgressTracker struct {
	mu sync.Mutex

	w        io.Writer
	total    int
	interval int

	institutes  int
	skipped     int
	suggestions int
	reportedAt  int

	started time.Time
}

// NewProgressTracker reports on a rebuild of total institutes, printing every
// interval institutes. A nil writer discards output.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{w: w, total: total, interval: max(interval, 1)}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = time.Now()
	p.institutes, p.skipped, p.suggestions, p.reportedAt = 0, 0, 0, 0
}

// Add records a finished batch.
func (p *ProgressTracker) Add(br BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return
	}
	p.institutes = min(p.institutes+br.Institutes, p.total)
	p.skipped += br.Skipped
	p.suggestions += br.Suggestions

	if p.institutes-p.reportedAt >= p.interval {
		p.report()
		p.reportedAt = p.institutes
	}
}

// Finish prints the final line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return
	}
	p.report()
	fmt.Fprintf(p.w, "\nDone in %s\n", time.Since(p.started).Round(time.Millisecond))
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

func (p *ProgressTracker) report() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.institutes) / float64(p.total) * 100
	}

	line := fmt.Sprintf("\rInstitutes %s/%s (%.1f%%), %s suggestions",
		humanize.Comma(int64(p.institutes)), humanize.Comma(int64(p.total)), pct,
		humanize.Comma(int64(p.suggestions)))
	if p.skipped > 0 {
		line += fmt.Sprintf(", %s skipped", humanize.Comma(int64(p.skipped)))
	}
	if elapsed := time.Since(p.started); p.institutes > 0 && p.institutes < p.total {
		remaining := time.Duration(float64(elapsed) / float64(p.institutes) * float64(p.total-p.institutes))
		line += ", eta " + remaining.Round(time.Second).String()
	}
	fmt.Fprint(p.w, line)
}
