// Package fileutil writes round snapshots and move logs to disk.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces filename with data. The data goes to a temporary
// file in the same directory first and is renamed into place, so a reader
// sees either the previous snapshot or the new one, never a torn write.
// Missing parent directories are created.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fileutil: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("fileutil: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("fileutil: write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("fileutil: sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("fileutil: close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("fileutil: chmod temp file: %w", err)
	}
	if err = os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("fileutil: rename temp file: %w", err)
	}
	return nil
}

// AppendFile appends data to filename, creating it and its directory when
// needed. The write is synced before returning.
func AppendFile(filename string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("fileutil: create dir: %w", err)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, perm)
	if err != nil {
		return fmt.Errorf("fileutil: open %s: %w", filename, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("fileutil: append %s: %w", filename, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fileutil: sync %s: %w", filename, err)
	}
	return f.Close()
}
