package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one <name>.json file per collection in a local directory.
// Files are human-readable and survive restarts; this is the development
// backend and the fallback when the database is unreachable.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore makes a file-backed store in dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to make data directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the collection file. A missing file means the collection has
// never been saved and returns nil data without an error.
func (f *FileStore) Load(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read collection %q: %w", name, err)
	}
	return data, nil
}

// Save replaces the collection file with data. The write goes to a temp
// file first and is renamed into place, so a reader never observes a
// partially written record.
func (f *FileStore) Save(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fname := f.path(name)
	tmp := fname + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write collection %q: %w", name, err)
	}
	if err := os.Rename(tmp, fname); err != nil {
		return fmt.Errorf("failed to replace collection %q: %w", name, err)
	}
	return nil
}

// Close is a no-op for file storage.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) String() string {
	return fmt.Sprintf("files:%s", f.dir)
}
