// Package flock provides cross-platform advisory file locks.
//
// A Lock is an exclusive, non-blocking lock held on an open file. It is used to
// keep two relpack runs from resetting the same output directory at once.
//
// Usage:
//
//	l, err := flock.Acquire(path)
//	if err != nil {
//	    // errors.Is(err, flock.ErrWouldBlock): another process holds it
//	}
//	defer l.Release()
package flock
