package tui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// lockedBuffer is a bytes.Buffer safe for the animation goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTerminalSpinner_AnimatesAndStops(t *testing.T) {
	var buf lockedBuffer
	s := NewTerminalSpinner(&buf)

	s.Start(context.Background(), "Build client")
	assert.Same(t, s, spinnerManager.GetActive())

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Build client")
	}, 2*time.Second, 20*time.Millisecond)

	s.Stop()
	assert.Nil(t, spinnerManager.GetActive())
	assert.Contains(t, buf.String(), clearLine)

	s.Stop() // idempotent
}

func TestTerminalSpinner_UpdateMessage(t *testing.T) {
	s := NewTerminalSpinner(&lockedBuffer{})
	s.Start(context.Background(), "Build client")
	defer s.Stop()

	s.UpdateMessage("Build server")
	assert.Equal(t, "Build server", s.Message())
}

func TestTerminalSpinner_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewTerminalSpinner(&lockedBuffer{})
	s.Start(ctx, "Build launcher")

	cancel()
	assert.Eventually(t, func() bool {
		return spinnerManager.GetActive() == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSpinnerAdapter(t *testing.T) {
	var buf lockedBuffer
	a := NewSpinnerAdapter(context.Background(), &buf, "Reset")
	a.Update("Preflight")
	a.Stop()

	assert.Nil(t, spinnerManager.GetActive())
}

func TestSpinnerAwareWriter_ClearsActiveLine(t *testing.T) {
	var spin lockedBuffer
	s := NewTerminalSpinner(&spin)
	s.Start(context.Background(), "Build server")
	defer s.Stop()

	var logs bytes.Buffer
	n, err := NewSpinnerAwareWriter(&logs).Write([]byte("log line\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("log line\n"), n)
	assert.Equal(t, "log line\n", logs.String())
	assert.Contains(t, spin.String(), clearLine)
}

func TestNoopSpinner(t *testing.T) {
	var s NoopSpinner
	s.Update("anything")
	s.Stop()
}
