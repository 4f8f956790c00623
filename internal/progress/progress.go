// Package progress implements the Spinner/ProgressBar/DualProgressBar
// widgets from spec §5: atomic counters for lock-free updates, a single
// mutex guarding the displayed error message, a frozen elapsed timer on
// completion, and TTY degradation to plain line-per-update output.
// Grounded on internal/indexing/pipeline_progress.go's ProgressTracker
// (sharded atomic counters, start-time-based rate estimate) generalized
// to the scan+index dual-bar shape spec names.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// poisonedMutex wraps sync.Mutex with Rust-style poisoning: a goroutine
// that panics while holding the lock marks it poisoned, and every
// subsequent Lock panics immediately rather than letting a caller
// silently proceed against a possibly-inconsistent guarded value. Spec
// §5 requires this to surface as a fatal internal error, never be
// swallowed.
type poisonedMutex struct {
	mu       sync.Mutex
	poisoned atomic.Bool
}

func (p *poisonedMutex) Lock() {
	if p.poisoned.Load() {
		panic("progress: status-line mutex poisoned by a prior panic")
	}
	p.mu.Lock()
}

func (p *poisonedMutex) Unlock() {
	p.mu.Unlock()
}

// guard runs fn with the mutex held, marking it poisoned if fn panics,
// then re-panicking so the caller's own recovery (if any) still sees
// the failure.
func (p *poisonedMutex) guard(fn func()) {
	p.Lock()
	defer func() {
		if r := recover(); r != nil {
			p.poisoned.Store(true)
			p.Unlock()
			panic(r)
		}
	}()
	fn()
	p.Unlock()
}

// Bar is one progress bar's atomic state: a processed counter, a total,
// and the poisoned-mutex-guarded current-item label + last error.
type Bar struct {
	label     string
	total     atomic.Int64
	processed atomic.Int64
	startTime time.Time
	done      atomic.Bool
	frozenAt  atomic.Int64 // UnixNano of completion, 0 while running

	statusMu    poisonedMutex
	currentItem string
	lastError   string
}

// NewBar starts a bar with an unset total (spec's scanning phase: total
// becomes known only once discovery finishes).
func NewBar(label string) *Bar {
	return &Bar{label: label, startTime: time.Now()}
}

func (b *Bar) SetTotal(total int) { b.total.Store(int64(total)) }

func (b *Bar) Increment(currentItem string) {
	b.processed.Add(1)
	b.statusMu.guard(func() { b.currentItem = currentItem })
}

// SetError records the most recently displayed error without aborting
// the bar — per spec §5 a failed item is logged, not fatal to the run.
func (b *Bar) SetError(err error) {
	b.statusMu.guard(func() {
		if err != nil {
			b.lastError = err.Error()
		}
	})
}

// Finish freezes the elapsed-time display; subsequent Snapshot calls
// report the elapsed time as of this call, not wall-clock "now".
func (b *Bar) Finish() {
	b.done.Store(true)
	b.frozenAt.Store(time.Now().UnixNano())
}

// Snapshot is an immutable read of a Bar's displayable state.
type Snapshot struct {
	Label       string
	Processed   int64
	Total       int64
	CurrentItem string
	LastError   string
	Elapsed     time.Duration
	Done        bool
	PerSecond   float64
}

func (b *Bar) Snapshot() Snapshot {
	var elapsed time.Duration
	if frozen := b.frozenAt.Load(); frozen != 0 {
		elapsed = time.Unix(0, frozen).Sub(b.startTime)
	} else {
		elapsed = time.Since(b.startTime)
	}

	var item, lastErr string
	b.statusMu.guard(func() {
		item = b.currentItem
		lastErr = b.lastError
	})

	processed := b.processed.Load()
	var perSec float64
	if elapsed > 0 {
		perSec = float64(processed) / elapsed.Seconds()
	}

	return Snapshot{
		Label:       b.label,
		Processed:   processed,
		Total:       b.total.Load(),
		CurrentItem: item,
		LastError:   lastErr,
		Elapsed:     elapsed,
		Done:        b.done.Load(),
		PerSecond:   perSec,
	}
}

// DualProgressBar pairs a scan bar (unbounded discovery count) with an
// index bar (bounded by the scan's final total) — spec's two-phase
// "scanning then indexing" pipeline display.
type DualProgressBar struct {
	Scan  *Bar
	Index *Bar
	out   io.Writer
	tty   bool
}

// NewDualProgressBar degrades to one plain status line per update when
// stdout is not a terminal (CI logs, piped output) instead of emitting
// carriage-return-driven redraws.
func NewDualProgressBar(out io.Writer) *DualProgressBar {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &DualProgressBar{
		Scan:  NewBar("scan"),
		Index: NewBar("index"),
		out:   out,
		tty:   isTTY,
	}
}

// Render writes one frame of the dual bar. In TTY mode it overwrites the
// previous two lines; in degraded mode it appends a single log line.
func (d *DualProgressBar) Render() {
	scan := d.Scan.Snapshot()
	index := d.Index.Snapshot()

	if d.tty {
		fmt.Fprintf(d.out, "\x1b[2K\rscan:  %s\n\x1b[2K\rindex: %s\x1b[1A", formatLine(scan), formatLine(index))
		return
	}
	fmt.Fprintf(d.out, "scan: %s | index: %s\n", formatLine(scan), formatLine(index))
}

func formatLine(s Snapshot) string {
	if s.Total > 0 {
		pct := float64(s.Processed) / float64(s.Total) * 100
		line := fmt.Sprintf("%d/%d (%.1f%%) %.1f/s %s", s.Processed, s.Total, pct, s.PerSecond, s.CurrentItem)
		if s.LastError != "" {
			line += " [" + s.LastError + "]"
		}
		return line
	}
	return fmt.Sprintf("%d discovered %s", s.Processed, s.CurrentItem)
}
