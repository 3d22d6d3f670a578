package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON snapshot file per cache in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the snapshot file for name.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the snapshot for name.
func (s *FileStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.Path(name), err)
	}
	return &snap, nil
}

// Save writes the snapshot to a temporary file and renames it into place,
// so a crash mid-write never leaves a truncated snapshot behind.
func (s *FileStore) Save(ctx context.Context, name string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path(name))
}

// Delete removes the snapshot for name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) String() string { return s.dir }

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
