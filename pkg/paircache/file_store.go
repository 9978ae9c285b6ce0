package paircache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileVersion is the current version of the cache file format.
const FileVersion = 1

type cacheFile struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// FileStore keeps all entries in one JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a store backed by path. The file is created on the
// first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

// Get returns the entry for key, or nil when absent or unreadable.
func (s *FileStore) Get(key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load().Entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Put writes the entry for key, keeping all other entries.
func (s *FileStore) Put(key, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.load()
	f.Entries[key] = Entry{Key: key, Address: address, Timestamp: s.now().UTC()}
	return s.save(f)
}

// List returns all entries ordered by key.
func (s *FileStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.load()
	out := make([]Entry, 0, len(f.Entries))
	for _, e := range f.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// load reads the file. A missing, unreadable or corrupt file is empty.
func (s *FileStore) load() *cacheFile {
	f := &cacheFile{Version: FileVersion}
	data, err := os.ReadFile(s.path)
	if err == nil {
		if json.Unmarshal(data, f) != nil {
			f = &cacheFile{Version: FileVersion}
		}
	}
	if f.Entries == nil {
		f.Entries = make(map[string]Entry)
	}
	return f
}

// save writes through a temporary file so a crash never leaves a torn file.
func (s *FileStore) save(f *cacheFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f.Version = FileVersion
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pair_cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

var _ Store = (*FileStore)(nil)
