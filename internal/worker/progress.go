package worker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const barWidth = 30

// Progress tracks a batch of photos: how many are painted, how many failed,
// how many pixels were repainted and which photo took longest.
type Progress struct {
	startTime time.Time
	output    io.Writer
	slowest   Result
	last      string
	total     int
	completed int
	failed    int
	pixels    int64
	mu        sync.Mutex
	enabled   bool
}

// NewProgress creates a tracker for total photos. A disabled tracker still
// counts but never draws the bar.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Record adds a finished photo.
func (p *Progress) Record(r Result, completed, total int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.last = filepath.Base(r.Task.Input)
	if r.Err != nil {
		p.failed++
	} else {
		p.pixels += int64(r.Pixels)
		if r.Elapsed > p.slowest.Elapsed {
			p.slowest = r
		}
	}
	line := p.line()
	p.mu.Unlock()

	if p.enabled {
		fmt.Fprint(p.output, line)
	}
}

// Callback returns Record as a ProgressFunc for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Record
}

// Pixels returns the number of pixels repainted by successful photos.
func (p *Progress) Pixels() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pixels
}

// line renders the status bar. Callers hold p.mu.
func (p *Progress) line() string {
	elapsed := time.Since(p.startTime)

	filled := 0
	if p.total > 0 {
		filled = p.completed * barWidth / p.total
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s%s] %d/%d photos",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), p.completed, p.total)
	if p.failed > 0 {
		fmt.Fprintf(&b, ", %d failed", p.failed)
	}
	fmt.Fprintf(&b, " | %s px repainted", humanize.Comma(p.pixels))

	if p.completed < p.total {
		if p.completed > 0 {
			perPhoto := elapsed / time.Duration(p.completed)
			fmt.Fprintf(&b, " | ETA %s", formatDuration(perPhoto*time.Duration(p.total-p.completed)))
		}
		if p.last != "" {
			fmt.Fprintf(&b, " | %s", p.last)
		}
	} else {
		fmt.Fprintf(&b, " | done in %s", formatDuration(elapsed))
	}

	// Pad over leftovers of a longer previous line.
	b.WriteString("          ")
	return b.String()
}

// Done redraws the final bar and ends the line.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	line := p.line()
	p.mu.Unlock()
	fmt.Fprintln(p.output, line)
}

// Summary describes the finished batch in one line for the log.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := fmt.Sprintf("Painted %d/%d photos (%d failed), %s pixels repainted in %s",
		p.completed-p.failed, p.total, p.failed, humanize.Comma(p.pixels), formatDuration(time.Since(p.startTime)))
	if p.slowest.Task.Input != "" {
		s += fmt.Sprintf(", slowest %s (%s)", filepath.Base(p.slowest.Task.Input), p.slowest.Elapsed.Round(time.Millisecond))
	}
	return s
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
