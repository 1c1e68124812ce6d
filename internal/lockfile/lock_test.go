package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papersync.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if lock.Path() != path {
		t.Errorf("Path() = %q, want %q", lock.Path(), path)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Release() error: %v", err)
	}

	// Reacquire after release must succeed.
	lock2, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() after release error: %v", err)
	}
	defer lock2.Release()
}

func TestAcquireWritesPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papersync.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer lock.Release()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("lock file empty, want pid breadcrumb")
	}
}

func TestReleaseNilLock(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("Release() on nil lock = %v, want nil", err)
	}
}

func TestErrLockBusyIsSentinel(t *testing.T) {
	if !errors.Is(ErrLockBusy, ErrLockBusy) {
		t.Error("ErrLockBusy does not match itself")
	}
}
