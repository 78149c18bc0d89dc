package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore keeps each slot in its own JSON file under a base directory.
type FileStore struct {
	fs   afero.Fs
	base string
}

// NewFileStore creates the base directory if needed. A nil fs means the OS
// filesystem.
func NewFileStore(fs afero.Fs, base string) (*FileStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(base, 0o700); err != nil {
		return nil, fmt.Errorf("cache error creating directories: %w", err)
	}
	return &FileStore{fs: fs, base: base}, nil
}

// slotPath returns the path for the given slot's JSON file.
func (s *FileStore) slotPath(slot string) string {
	return filepath.Join(s.base, slot+".json")
}

// Load returns the slot contents. A file that is not valid JSON is moved
// aside and reported as ErrCorrupt.
func (s *FileStore) Load(slot string) ([]byte, error) {
	path := s.slotPath(slot)
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache error reading %s: %w", path, err)
	}
	if !json.Valid(data) {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = s.fs.Rename(path, backupPath)
		return nil, fmt.Errorf("%w: %s (backed up to %s)", ErrCorrupt, path, backupPath)
	}
	return data, nil
}

// Save atomically replaces the slot contents.
func (s *FileStore) Save(slot string, data []byte) error {
	path := s.slotPath(slot)

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("cache error writing temp file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("cache error renaming temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
