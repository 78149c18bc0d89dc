// Package cache is the durable local copy of the timesheet: named slots
// holding the JSON-encoded entry map, employee list and unconfirmed edits.
package cache

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Slot names.
const (
	SlotEntries   = "entries"
	SlotEmployees = "employees"
	SlotPending   = "pending"
)

var (
	// ErrNotFound is returned by Load when a slot has never been written.
	ErrNotFound = errors.New("cache slot not found")
	// ErrCorrupt is returned by Load when a slot does not hold valid JSON.
	ErrCorrupt = errors.New("cache slot corrupt")
)

// Store reads and writes whole slots.
type Store interface {
	Load(slot string) ([]byte, error)
	Save(slot string, data []byte) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Backend is "file" or "sqlite".
	Backend string
	// Dir is the directory holding the cache files or database.
	Dir string
}

// Open returns the configured backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(nil, opts.Dir)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(opts.Dir, "cache.db"))
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", opts.Backend)
	}
}
