// Package progress draws a single-line download bar with throughput.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/ndnm/ndnm/internal/messages"
)

const (
	bytesPerMB    = 1 << 20
	minBarWidth   = 10
	reservedWidth = 40
	redrawEvery   = 100 * time.Millisecond
)

var now = time.Now

// Bar renders transfer progress to a terminal. It satisfies download.Reporter.
type Bar struct {
	out   io.Writer
	model progress.Model

	mu        sync.Mutex
	total     int64
	done      int64
	started   time.Time
	lastDraw  time.Time
	lastShown int
}

// New returns a Bar writing to out, sized for a terminal of the given column count.
func New(out io.Writer, columns int) *Bar {
	width := columns - reservedWidth
	if width < minBarWidth {
		width = minBarWidth
	}
	return &Bar{
		out:   out,
		model: progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
	}
}

// Start resets the bar for a transfer of total bytes.
func (b *Bar) Start(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
	b.done = 0
	b.started = now()
	b.lastDraw = time.Time{}
	b.lastShown = -1
	b.draw()
}

// Add records n more bytes and redraws when the shown percentage changes or the
// redraw interval has passed.
func (b *Bar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done += n
	if int(b.percent()*100) != b.lastShown || now().Sub(b.lastDraw) >= redrawEvery {
		b.draw()
	}
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draw()
	_, _ = fmt.Fprintln(b.out)
}

func (b *Bar) percent() float64 {
	if b.total <= 0 {
		return 0
	}
	p := float64(b.done) / float64(b.total)
	if p > 1 {
		return 1
	}
	return p
}

func (b *Bar) draw() {
	p := b.percent()
	b.lastShown = int(p * 100)
	b.lastDraw = now()
	_, _ = fmt.Fprintf(b.out, "\r"+messages.ProgressSpeedFmt, messages.ProgressDownloadLabel, b.model.ViewAs(p), Throughput(b.done, b.lastDraw.Sub(b.started)))
}

// Throughput returns megabytes per second for n bytes moved in elapsed.
func Throughput(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / bytesPerMB / elapsed.Seconds()
}
