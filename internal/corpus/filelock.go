package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLockTimeout indicates the lock acquisition timed out.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// FileLock provides exclusive file locking using flock(2). It serializes
// corpus installs into one cache entry across processes; the lock is
// released automatically if the process exits or crashes.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a file lock at the given path. The lock file and its
// parent directories are created on first acquisition.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock acquires the exclusive lock, polling until it is available or the
// timeout expires. Returns ErrLockTimeout on expiry.
func (l *FileLock) Lock(timeout time.Duration) error {
	if err := l.ensureFileExists(); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	pollInterval := 10 * time.Millisecond

	for {
		err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = l.file.Close()
			l.file = nil
			return fmt.Errorf("flock failed: %w", err)
		}

		if time.Now().After(deadline) {
			_ = l.file.Close()
			l.file = nil
			return ErrLockTimeout
		}

		time.Sleep(pollInterval)
		pollInterval = min(pollInterval*2, 500*time.Millisecond)
	}
}

// Unlock releases the lock. Calling Unlock on an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}

	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

func (l *FileLock) ensureFileExists() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	l.file = file
	return nil
}
