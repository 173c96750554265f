// Package store provides the persistence core of the dashboard: named
// containers (Map and List) whose mutations are written through to a
// pluggable backend. The backend is JSON files in a local directory for
// development, or a single relational table when a database URL is
// configured. Call sites never branch on which backend is active.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/go-pkgz/lgr"
)

// ErrIndexOutOfRange indicates an index-based List operation outside the
// current bounds. No persistence is attempted for such calls.
var ErrIndexOutOfRange = errors.New("index out of range")

// Backend is the durable storage medium beneath the containers. Save
// replaces the record for a collection name wholesale; Load returns the
// last saved record, or nil data for a name that has never been saved.
type Backend interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
	Close() error
}

// Config defines backend selection. DatabaseURL enables the database
// backend; with an empty URL collections are kept as files in DataDir.
// The choice is made once here, the containers don't know about it.
type Config struct {
	DatabaseURL string
	DataDir     string
}

// New creates the backend for the given config. An unreachable database is
// not fatal: the store falls back to file storage with a warning, so the
// dashboard stays usable with reduced durability.
func New(cfg Config) (Backend, error) {
	if cfg.DatabaseURL == "" {
		return NewFileStore(cfg.DataDir)
	}

	db, err := NewDBStore(cfg.DatabaseURL)
	if err != nil {
		log.Printf("[WARN] database unavailable, falling back to file storage in %q: %v", cfg.DataDir, err)
		return NewFileStore(cfg.DataDir)
	}
	return db, nil
}

// Decode converts a value read from a container into a typed destination,
// going through the same JSON representation the backends persist.
func Decode(v, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}
