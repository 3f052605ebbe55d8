package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "install.lock")
	lock := NewFileLock(path)

	if err := lock.Lock(time.Second); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
}

func TestFileLock_ContentionTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")

	holder := NewFileLock(path)
	if err := holder.Lock(time.Second); err != nil {
		t.Fatalf("holder Lock failed: %v", err)
	}
	defer holder.Unlock()

	waiter := NewFileLock(path)
	err := waiter.Lock(50 * time.Millisecond)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("waiter Lock error = %v, want ErrLockTimeout", err)
	}
}

func TestFileLock_AvailableAfterUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")

	first := NewFileLock(path)
	if err := first.Lock(time.Second); err != nil {
		t.Fatalf("first Lock failed: %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	second := NewFileLock(path)
	if err := second.Lock(time.Second); err != nil {
		t.Errorf("second Lock failed after release: %v", err)
	}
	_ = second.Unlock()
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "install.lock"))
	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock on unheld lock = %v, want nil", err)
	}
}

func TestFileLock_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")
	if got := NewFileLock(path).Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
}
