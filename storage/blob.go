// Package storage owns the transient artifacts around a job: the
// uploaded audio blob and rendered score outputs.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// BlobStore writes uploaded audio to temporary files. Each file is
// owned by exactly one job and removed when that job reaches a
// terminal state.
type BlobStore struct {
	dir string
}

// NewBlobStore creates a store rooted at dir; empty means the system
// temp directory.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

// Save streams an upload into a new temporary file and returns its
// path.
func (s *BlobStore) Save(r io.Reader, pattern string) (string, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp audio file: %w", err)
	}
	return f.Name(), nil
}

// Remove deletes a stored blob. A file that is already gone is not an
// error; cleanup must be safe to attempt on every exit path.
func (s *BlobStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
