package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 40

// Bar is a single-line terminal progress bar.
type Bar struct {
	out       io.Writer
	label     string
	total     int
	current   int
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar printing to stdout.
func New(label string, total int) *Bar {
	return NewWithWriter(os.Stdout, label, total)
}

func NewWithWriter(w io.Writer, label string, total int) *Bar {
	now := time.Now()
	return &Bar{
		out:       w,
		label:     label,
		total:     total,
		startTime: now,
		lastPrint: now,
	}
}

// Increment increases the progress counter
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current < b.total {
		b.current++
	}

	// redraw at most every 500ms, and always on the last item
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish marks the progress as complete
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.current = b.total
		b.render()
		fmt.Fprintln(b.out)
		b.done = true
	}
}

func (b *Bar) render() {
	if b.done {
		return
	}

	var ratio float64
	if b.total > 0 {
		ratio = float64(b.current) / float64(b.total)
	} else {
		ratio = 1
	}
	elapsed := time.Since(b.startTime)

	var eta time.Duration
	if b.current > 0 {
		avg := elapsed / time.Duration(b.current)
		eta = avg * time.Duration(b.total-b.current)
	}

	filled := int(barWidth * ratio)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.1f%%) - Elapsed: %s - ETA: %s   ",
		b.label,
		bar,
		b.current,
		b.total,
		ratio*100,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
