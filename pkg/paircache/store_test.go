package paircache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends opens a fresh store of each kind on the same path twice, so
// tests can check what survives a new session.
func backends(t *testing.T) map[string]func() Store {
	dir := t.TempDir()
	return map[string]func() Store{
		BackendJSON: func() Store {
			return NewFileStore(filepath.Join(dir, "cache.json"))
		},
		BackendSQLite: func() Store {
			s, err := NewSQLStore(filepath.Join(dir, "cache.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestRoundTripAcrossSessions(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			require.NoError(t, s.Put("slave@COM3", "98D3:31:FB2211"))
			require.NoError(t, s.Close())

			s = open()
			defer s.Close()
			e, err := s.Get("slave@COM3")
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, "98D3:31:FB2211", e.Address)
			assert.Equal(t, "slave@COM3", e.Key)
			assert.False(t, e.Timestamp.IsZero())
		})
	}
}

func TestSecondKeyPreservesFirst(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			require.NoError(t, s.Put("slave@COM3", "98D3:31:FB2211"))
			require.NoError(t, s.Put("slave@COM4", "2016:04:080372"))

			e, err := s.Get("slave@COM3")
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, "98D3:31:FB2211", e.Address)

			entries, err := s.List()
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "slave@COM3", entries[0].Key)
			assert.Equal(t, "slave@COM4", entries[1].Key)
		})
	}
}

func TestLatestWriteWins(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			require.NoError(t, s.Put("k", "98D3:31:FB2211"))
			require.NoError(t, s.Put("k", "2016:04:080372"))

			e, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "2016:04:080372", e.Address)
		})
	}
}

func TestMissingKey(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			e, err := s.Get("nope")
			require.NoError(t, err)
			assert.Nil(t, e)
		})
	}
}

func TestFileStoreCorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewFileStore(path)
	e, err := s.Get("slave@COM3")
	require.NoError(t, err)
	assert.Nil(t, e)

	require.NoError(t, s.Put("slave@COM3", "98D3:31:FB2211"))
	e, err = s.Get("slave@COM3")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "98D3:31:FB2211", e.Address)
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")
	s := NewFileStore(path)
	require.NoError(t, s.Put("k", "98D3:31:FB2211"))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".pair_cache-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	// Parent path is a regular file, so the directory cannot be created.
	s := NewFileStore(filepath.Join(blocker, "cache.json"))
	assert.Error(t, s.Put("k", "98D3:31:FB2211"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", filepath.Join(dir, "c.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open("sqlite", filepath.Join(dir, "c.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("redis", "")
	assert.Error(t, err)
}

func TestSQLStoreInMemory(t *testing.T) {
	s, err := NewSQLStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("k", "98D3:31:FB2211"))
	e, err := s.Get("k")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "98D3:31:FB2211", e.Address)
}

func TestKeyForPort(t *testing.T) {
	assert.Equal(t, "slave@/dev/ttyUSB0", KeyForPort("/dev/ttyUSB0"))
}
