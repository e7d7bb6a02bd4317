package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock is an exclusive advisory lock held on a lock file. Other holders of a
// lock on the same path, in this process or another, block until Unlock.
type Lock struct {
	f *os.File
}

// LockFile opens path, creating it and its directory when needed, and blocks
// until it holds the exclusive lock.
func LockFile(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("fileutil: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fileutil: open lock %s: %w", path, err)
	}
	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("fileutil: lock %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Unlock releases the lock. Closing the file drops it as well.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
