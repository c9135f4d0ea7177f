//go:build unix

package flock

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantBlock bool
	}{
		{"would block", syscall.EWOULDBLOCK, true},
		{"again", syscall.EAGAIN, true},
		{"wrapped would block", fmt.Errorf("flock: %w", syscall.EWOULDBLOCK), true},
		{"no locks available", syscall.ENOLCK, false},
		{"bad descriptor", syscall.EBADF, false},
		{"not supported", syscall.EOPNOTSUPP, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := lockError("/out/.relpack.lock", tc.err)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "/out/.relpack.lock")
			if tc.wantBlock {
				assert.ErrorIs(t, err, ErrWouldBlock)
				return
			}
			assert.NotErrorIs(t, err, ErrWouldBlock)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
