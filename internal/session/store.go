package session

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists session snapshots as a single file on local disk.
// The file is written with 0600 permissions since it holds live credentials.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save encodes state and writes it to the store path.
func (f *FileStore) Save(state *State) error {
	payload, err := state.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	if err = os.WriteFile(f.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the persisted snapshot. Returns ErrSnapshotNotFound
// when no snapshot exists yet, ErrCorruptSnapshot when one exists but cannot
// be restored.
func (f *FileStore) Load() (*State, error) {
	blob, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read session snapshot: %w", err)
	}

	return Decode(blob)
}

// Delete removes the persisted snapshot, ignoring a missing file.
func (f *FileStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}
