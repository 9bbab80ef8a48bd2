package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards bytes.Buffer, the spinner writes from its own goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_RendersAndStops(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner(out, "solving", 5*time.Millisecond)
	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "\r[ | ] solving"), "got %q", got)
	assert.Contains(t, got, "\r[ / ] solving")
	assert.True(t, strings.HasSuffix(got, "\n"))

	// no output after Stop
	before := out.String()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, out.String())
}

func TestSpinner_StopsWithContext(t *testing.T) {
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSpinner(out, "", time.Hour)
	s.Start(ctx)
	cancel()
	s.Stop()

	assert.Equal(t, "\r[ | ] "+DefaultMessage+"\n", out.String())
}

func TestSpinner_StopBeforeStart(t *testing.T) {
	s := NewSpinner(nil, "", 0)
	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
}
