// Package progress renders the console spinner shown while the proof of work runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultMessage  = "Performing proof of work to validate your request"
)

var frames = []rune{'|', '/', '―', '\\'}

// Spinner writes "\r[ <frame> ] <message>" on every tick until stopped.
type Spinner struct {
	out      io.Writer
	message  string
	interval time.Duration

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSpinner(out io.Writer, message string, interval time.Duration) *Spinner {
	if out == nil {
		out = io.Discard
	}
	if message == "" {
		message = DefaultMessage
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Spinner{out: out, message: message, interval: interval}
}

// Start begins rendering. The spinner stops when ctx is done or Stop is called.
func (s *Spinner) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		current := 0
		s.render(current)
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(s.out)
				return
			case <-ticker.C:
				current++
				s.render(current)
			}
		}
	}()
}

func (s *Spinner) render(current int) {
	fmt.Fprintf(s.out, "\r[ %c ] %s", frames[current%len(frames)], s.message)
}

// Stop halts the spinner and waits for the final newline to be written.
// It is safe to call more than once, and before Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}
