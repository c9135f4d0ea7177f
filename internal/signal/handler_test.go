package signal

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Signal_CancelsContextWithCause(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.handleSignal(syscall.SIGINT)

	require.ErrorIs(t, h.Context().Err(), context.Canceled)

	var interrupted *InterruptedError
	require.ErrorAs(t, context.Cause(h.Context()), &interrupted)
	assert.Equal(t, syscall.SIGINT, interrupted.Signal)
	assert.Contains(t, interrupted.Error(), "interrupt")
}

func TestHandler_Signal_ClosesInterruptedChannel(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.handleSignal(syscall.SIGTERM)

	select {
	case <-h.Interrupted():
	default:
		t.Fatal("interrupted channel should be closed after signal")
	}
}

func TestHandler_OnlyFirstSignalCounts(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.handleSignal(syscall.SIGTERM)
	h.handleSignal(syscall.SIGINT)

	assert.Equal(t, syscall.SIGTERM, h.Received())
	assert.Equal(t, 143, h.ExitCode())
}

func TestHandler_ExitCode(t *testing.T) {
	tests := []struct {
		name string
		sig  os.Signal
		want int
	}{
		{"sigint", syscall.SIGINT, InterruptExitCode},
		{"sigterm", syscall.SIGTERM, 143},
		{"os interrupt", os.Interrupt, InterruptExitCode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(context.Background())
			defer h.Stop()

			h.handleSignal(tc.sig)
			assert.Equal(t, tc.want, h.ExitCode())
		})
	}
}

func TestHandler_NoSignal(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	require.NoError(t, h.Context().Err())
	assert.Nil(t, h.Received())
	assert.Zero(t, h.ExitCode())

	select {
	case <-h.Interrupted():
		t.Fatal("interrupted channel should be open initially")
	default:
	}
}

func TestHandler_Stop_IsIdempotent(t *testing.T) {
	h := NewHandler(context.Background())

	h.Stop()
	h.Stop()

	require.Error(t, h.Context().Err())
	assert.ErrorIs(t, context.Cause(h.Context()), context.Canceled)
	assert.Nil(t, h.Received())
}

func TestHandler_ParentContextCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent)
	defer h.Stop()

	cancel()

	require.Error(t, h.Context().Err())
	assert.Nil(t, h.Received())
}

func TestHandler_ListenDeliversSignal(t *testing.T) {
	h := NewHandler(context.Background())
	defer h.Stop()

	h.sigChan <- syscall.SIGINT

	select {
	case <-h.Interrupted():
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not delivered")
	}
	assert.Equal(t, syscall.SIGINT, h.Received())
}
