// Package cachestore persists the encoded product profile snapshot.
//
// A BlobStore holds exactly one blob. Get returns ErrNotFound until the
// first Put.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// ErrNotFound is returned by Get before anything was stored.
var ErrNotFound = fmt.Errorf("profile cache blob: %w", internalerr.ErrNotFound)

// BlobStore stores a single opaque blob.
type BlobStore interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, blob []byte) error
}

// FileStore keeps the blob in a file, replaced atomically on Put.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. Parent directories are
// created on first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Get implements BlobStore.
func (f *FileStore) Get(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, nil
}

// Put implements BlobStore. The blob is written to a temp file in the same
// directory and renamed over the target.
func (f *FileStore) Put(ctx context.Context, blob []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

// MemoryStore keeps the blob in memory. Useful when persistence is disabled.
type MemoryStore struct {
	blob []byte
	set  bool
}

// Get implements BlobStore.
func (m *MemoryStore) Get(ctx context.Context) ([]byte, error) {
	if !m.set {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.blob...), nil
}

// Put implements BlobStore.
func (m *MemoryStore) Put(ctx context.Context, blob []byte) error {
	m.blob = append([]byte(nil), blob...)
	m.set = true
	return nil
}
