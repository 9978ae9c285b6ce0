package paircache

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one cached address.
type Entry struct {
	Key       string    `json:"key"`
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

// Store maps a port-derived key to the last address seen for it.
type Store interface {
	// Get returns the entry for key, or nil when there is none.
	Get(key string) (*Entry, error)

	// Put overwrites the entry for key and persists it immediately.
	Put(key, address string) error

	// List returns all entries ordered by key.
	List() ([]Entry, error)

	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLStore(path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q: expected json or sqlite", backend)
	}
}

// KeyForPort returns the default key for a slave seen on port.
func KeyForPort(port string) string {
	return "slave@" + port
}
