// Package lockfile provides an advisory, process-wide exclusive lock on a file.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrAlreadyLocked indicates the lock is held by another process.
var ErrAlreadyLocked = errors.New("lock already held")

// Lock is a held exclusive lock. Release it when done.
type Lock struct {
	path string
	f    *os.File
}

// Acquire blocks until an exclusive lock on path is held, creating the file
// if needed.
func Acquire(path string) (*Lock, error) {
	return acquire(path, true)
}

// TryAcquire takes the lock without waiting. It returns ErrAlreadyLocked when
// another process holds it.
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, false)
}

func acquire(path string, wait bool) (*Lock, error) {
	if path == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, wait); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Best-effort: write pid for troubleshooting.
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())

	return &Lock{path: path, f: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
