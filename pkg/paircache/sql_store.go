package paircache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLStore keeps entries in a SQLite table.
type SQLStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLStore opens or creates the database at path.
// Use ":memory:" for an in-memory database.
func NewSQLStore(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &SQLStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS pair_cache (
		key TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`)
	return err
}

// Get returns the entry for key, or nil when absent.
func (s *SQLStore) Get(key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := Entry{Key: key}
	err := s.db.QueryRow(`SELECT address, updated_at FROM pair_cache WHERE key = ?`, key).
		Scan(&e.Address, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Put inserts or replaces the entry for key.
func (s *SQLStore) Put(key, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO pair_cache (key, address, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET address = excluded.address, updated_at = excluded.updated_at
	`, key, address, s.now().UTC())
	return err
}

// List returns all entries ordered by key.
func (s *SQLStore) List() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, address, updated_at FROM pair_cache ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Address, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
