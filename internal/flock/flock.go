package flock

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrWouldBlock is returned by Acquire when another holder owns the lock.
var ErrWouldBlock = errors.New("lock is held by another process")

// filePerm is the mode for newly created lock files.
const filePerm os.FileMode = 0o600

// Lock is an exclusive lock held on a file. Release is safe to call more than once.
type Lock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Acquire opens (creating if needed) the file at path and takes an exclusive
// non-blocking lock on it. It fails with ErrWouldBlock if the lock is held
// and with the underlying error if locking itself fails.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePerm) //#nosec G304 -- lock path is built by the caller from a validated directory
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, lockError(path, err)
	}

	// Record the holder for operators inspecting a stuck lock.
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return &Lock{path: path, file: f}, nil
}

// lockError reports contention as ErrWouldBlock and any other failure as is.
func lockError(path string, err error) error {
	if isWouldBlock(err) {
		return fmt.Errorf("%w: %s", ErrWouldBlock, path)
	}
	return fmt.Errorf("lock %s: %w", path, err)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. The file itself is left in place
// so that a concurrent Acquire never locks an unlinked inode.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	return f.Close()
}
