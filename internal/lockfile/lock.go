// Package lockfile provides an advisory run lock keyed on a file in the
// state directory. Overlapping scheduled runs read a stale identity index
// and can create duplicate issues; the lock gives true mutual exclusion
// between runs sharing a state directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockBusy is returned when another run already holds the lock.
var ErrLockBusy = errors.New("run lock already held by another process")

// Lock is a held run lock. Release it when the run finishes.
type Lock struct {
	f    *os.File
	path string
}

// Acquire takes an exclusive non-blocking lock on path, creating the file if
// needed. Returns ErrLockBusy (possibly wrapped) when another process holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := flockExclusiveNonBlock(f); err != nil {
		f.Close()
		if errors.Is(err, ErrLockBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Best-effort pid breadcrumb for debugging stuck locks.
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())

	return &Lock{f: f, path: path}, nil
}

// Release unlocks and closes the lock file. The file itself is left in
// place; a leftover file carries no lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unlockErr := flockUnlock(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}
