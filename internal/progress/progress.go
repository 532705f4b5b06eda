// Package progress is the visible sign of life shown while the long install
// steps run. The indicator has no result: its sole contract is that it runs
// until canceled, and that stopping it is safe on every exit path.
package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

var frames = []string{"|", "/", "-", "\\"}

// Indicator writes spinner frames to Writer until stopped.
type Indicator struct {
	Writer   io.Writer
	Interval time.Duration
	Message  string

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Start spawns the indicator goroutine. Starting an already-running
// indicator is a no-op.
func (i *Indicator) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return
	}

	interval := i.Interval
	if interval == 0 {
		interval = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.done = make(chan struct{})
	i.running = true

	go i.spin(ctx, interval, i.done)
}

func (i *Indicator) spin(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(i.Writer, "\r\033[K")
			return
		case <-ticker.C:
			fmt.Fprintf(i.Writer, "\r%s %s", frames[frame%len(frames)], i.Message)
			frame++
		}
	}
}

// Stop cancels the indicator and waits for its goroutine to exit. Stop is
// idempotent and safe to call without a prior Start, so callers can defer it
// unconditionally.
func (i *Indicator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return
	}
	i.cancel()
	<-i.done
	i.running = false
}
