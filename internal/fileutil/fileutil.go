package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is a temp file in the destination directory that becomes the
// destination only when Commit succeeds.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a sibling temp file for dst. Callers must call either
// Commit or Abort.
func CreateAtomic(dst string, mode os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("chmod temp file: %w", err)
	}
	return &AtomicFile{File: tmp, target: dst}, nil
}

// Commit syncs and closes the temp file, then renames it over the target.
func (f *AtomicFile) Commit() error {
	if f.done {
		return fmt.Errorf("atomic file %s already finished", f.target)
	}
	f.done = true
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(f.Name(), f.target); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is safe to call after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.Close()
	_ = os.Remove(f.Name())
}

// WriteFileAtomic writes data to dst through a temp file and rename, so
// readers never observe a partially written file.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) error {
	f, err := CreateAtomic(dst, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return fmt.Errorf("write temp file: %w", err)
	}
	return f.Commit()
}
