// Package config loads hclink settings from YAML.
//
// Settings are process conveniences (default PIN and baud, timeouts, cache
// location). They are loaded once and passed on as values; no package reads
// them from globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the settings file.
type Config struct {
	Defaults Defaults `yaml:"defaults"`
	Timeouts Timeouts `yaml:"timeouts"`
	Cache    Cache    `yaml:"cache"`
	Pair     Pair     `yaml:"pair"`

	// Capture is the default .atlog capture path; empty disables capture.
	Capture string `yaml:"capture,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Defaults are applied when the caller supplies no value.
type Defaults struct {
	Pin         string        `yaml:"pin"`
	Baud        int           `yaml:"baud"`
	PairTimeout time.Duration `yaml:"pair_timeout"`
}

// Timeouts bound AT exchanges.
type Timeouts struct {
	Probe      time.Duration `yaml:"probe"`
	Command    time.Duration `yaml:"command"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Inquiry    time.Duration `yaml:"inquiry"`

	// PortWait is how long a missing port is retried, e.g. while a USB
	// adapter re-enumerates after a module swap. Zero disables waiting.
	PortWait time.Duration `yaml:"port_wait"`
}

// Cache selects the address cache backend.
type Cache struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Pair holds pairing defaults.
type Pair struct {
	// Mode is "one" (shared port, swap) or "two" (two ports).
	Mode        string   `yaml:"mode,omitempty"`
	Skip        []string `yaml:"skip,omitempty"`
	ExtraMaster []string `yaml:"extra_master,omitempty"`
	ExtraSlave  []string `yaml:"extra_slave,omitempty"`
}

// Default values.
const (
	DefaultPin         = "1234"
	DefaultBaud        = 9600
	DefaultPairTimeout = 20 * time.Second
	DefaultProbe       = 2 * time.Second
	DefaultCommand     = 2 * time.Second
	DefaultRetryDelay  = 250 * time.Millisecond
	DefaultInquiry     = 8 * time.Second
	DefaultPortWait    = 5 * time.Second
)

// DefaultCachePath returns $XDG_CONFIG_HOME/hclink/pair_cache.json or the
// platform equivalent, falling back to the working directory.
func DefaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pair_cache.json"
	}
	return filepath.Join(dir, "hclink", "pair_cache.json")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			Pin:         DefaultPin,
			Baud:        DefaultBaud,
			PairTimeout: DefaultPairTimeout,
		},
		Timeouts: Timeouts{
			Probe:      DefaultProbe,
			Command:    DefaultCommand,
			RetryDelay: DefaultRetryDelay,
			Inquiry:    DefaultInquiry,
			PortWait:   DefaultPortWait,
		},
		Cache: Cache{
			Backend: "json",
			Path:    DefaultCachePath(),
		},
		LogLevel: "info",
	}
}

// Parse reads YAML over the defaults. Keys absent from data keep their
// default value.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	cfg.Capture = expandHome(cfg.Capture)
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Message: err.Error(), Cause: err}
	}
	return cfg, nil
}

// Load reads the file at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidPin reports whether pin is four digits.
func ValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !ValidPin(c.Defaults.Pin) {
		return fmt.Errorf("defaults.pin must be 4 digits, got %q", c.Defaults.Pin)
	}
	if c.Defaults.Baud <= 0 {
		return fmt.Errorf("defaults.baud must be positive, got %d", c.Defaults.Baud)
	}
	if c.Defaults.PairTimeout < time.Second {
		return fmt.Errorf("defaults.pair_timeout must be at least 1s, got %s", c.Defaults.PairTimeout)
	}
	for name, d := range map[string]time.Duration{
		"timeouts.probe":   c.Timeouts.Probe,
		"timeouts.command": c.Timeouts.Command,
		"timeouts.inquiry": c.Timeouts.Inquiry,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Timeouts.PortWait < 0 {
		return fmt.Errorf("timeouts.port_wait must not be negative, got %s", c.Timeouts.PortWait)
	}
	if c.Timeouts.RetryDelay < 0 {
		return fmt.Errorf("timeouts.retry_delay must not be negative, got %s", c.Timeouts.RetryDelay)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "json", "sqlite":
	default:
		return fmt.Errorf("cache.backend must be json or sqlite, got %q", c.Cache.Backend)
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	switch strings.ToLower(c.Pair.Mode) {
	case "", "one", "two":
	default:
		return fmt.Errorf("pair.mode must be one or two, got %q", c.Pair.Mode)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.File == "" {
		return "config: " + e.Message
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
