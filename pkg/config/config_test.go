package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "1234", cfg.Defaults.Pin)
	assert.Equal(t, 9600, cfg.Defaults.Baud)
	assert.Equal(t, 20*time.Second, cfg.Defaults.PairTimeout)
	assert.Equal(t, "json", cfg.Cache.Backend)
	assert.Equal(t, "pair_cache.json", filepath.Base(cfg.Cache.Path))
	require.NoError(t, cfg.Validate())
}

func TestParseOverridesOnlyGivenKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
defaults:
  pin: "0000"
  pair_timeout: 30s
timeouts:
  retry_delay: 100ms
cache:
  backend: sqlite
  path: /tmp/hclink/cache.db
pair:
  mode: one
  skip: [rmaad, link]
  extra_slave: ["AT+CLASS=0"]
`))
	require.NoError(t, err)

	assert.Equal(t, "0000", cfg.Defaults.Pin)
	assert.Equal(t, 9600, cfg.Defaults.Baud)
	assert.Equal(t, 30*time.Second, cfg.Defaults.PairTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Timeouts.RetryDelay)
	assert.Equal(t, DefaultProbe, cfg.Timeouts.Probe)
	assert.Equal(t, DefaultPortWait, cfg.Timeouts.PortWait)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "/tmp/hclink/cache.db", cfg.Cache.Path)
	assert.Equal(t, "one", cfg.Pair.Mode)
	assert.Equal(t, []string{"rmaad", "link"}, cfg.Pair.Skip)
	assert.Equal(t, []string{"AT+CLASS=0"}, cfg.Pair.ExtraSlave)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"pin", "defaults:\n  pin: \"12\"\n"},
		{"baud", "defaults:\n  baud: -1\n"},
		{"backend", "cache:\n  backend: redis\n"},
		{"mode", "pair:\n  mode: three\n"},
		{"probe", "timeouts:\n  probe: 0s\n"},
		{"log level", "log_level: loud\n"},
		{"syntax", "defaults: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var le *LoadError
			assert.True(t, errors.As(err, &le))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hclink.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  baud: 115200\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.Defaults.Baud)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaud, cfg.Defaults.Baud)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.File, "missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadErrorCarriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  pin: abcd\n"), 0644))

	_, err := Load(path)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.File)
}

func TestValidPin(t *testing.T) {
	assert.True(t, ValidPin("0000"))
	assert.False(t, ValidPin("123"))
	assert.False(t, ValidPin("12a4"))
	assert.False(t, ValidPin("12345"))
}
