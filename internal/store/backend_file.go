package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileBackend stores each key as one file under a base directory. Writes go
// to a temp file in the same directory followed by a rename, so a concurrent
// reader sees either the old or the new snapshot, never a torn one.
type fileBackend struct {
	dir string

	mu sync.RWMutex
}

// NewFileBackend returns a Backend rooted at dir, creating the directory if
// needed.
func NewFileBackend(dir string) (Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrBackend)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create storage dir: %w", ErrBackend, err)
	}
	return &fileBackend{dir: dir}, nil
}

func (f *fileBackend) Get(key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrBackend, key, err)
	}
	return data, true, nil
}

func (f *fileBackend) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrBackend, err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %w", ErrBackend, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp file: %w", ErrBackend, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %w", ErrBackend, err)
	}

	if err = os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (f *fileBackend) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %w", ErrBackend, key, err)
	}
	return nil
}

// path maps a collection name to a file name, replacing separators so a key
// cannot escape the base directory.
func (f *fileBackend) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}
