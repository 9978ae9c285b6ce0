package pairing

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/config"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/paircache"
)

// MaxNameLength bounds module names.
const MaxNameLength = 32

// Config describes one pairing run.
type Config struct {
	Mode Mode

	// Port is the shared port in mode one. MasterPort and SlavePort are
	// used in mode two; in mode one either may stand in for Port.
	Port       string
	MasterPort string
	SlavePort  string

	Pin  string
	Baud int

	// NameMaster and NameSlave are optional; empty leaves the name as is.
	NameMaster string
	NameSlave  string

	Skip StepSet

	// ExtraMaster and ExtraSlave run after each role's plan, non-critical.
	ExtraMaster []string
	ExtraSlave  []string

	// TargetAddress is used when the slave does not report one.
	TargetAddress string

	// DryRun renders the plans without opening any port.
	DryRun bool

	// PairTimeout is the window AT+PAIR gives the module (default 20s).
	PairTimeout time.Duration

	// InquiryTimeout bounds AT+INQ (default 8s).
	InquiryTimeout time.Duration

	// RetryDelay is the pause between attempts. Negative disables it.
	RetryDelay time.Duration

	// CommandTimeout bounds commands without a timeout of their own.
	CommandTimeout time.Duration

	// PortWait retries a missing port during detection (zero disables).
	PortWait time.Duration

	// CacheKey names the cache entry (default "slave@<port>").
	CacheKey string

	// SlaveModule and MasterModule override detection. In a dry run they
	// select the dialects to render (Unknown renders HC-05).
	SlaveModule  dialect.Module
	MasterModule dialect.Module
}

// ConfigFromSettings returns a Config seeded with the loaded settings.
func ConfigFromSettings(s *config.Config) (Config, error) {
	mode, err := ParseMode(s.Pair.Mode)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	skip, err := ParseSteps(s.Pair.Skip)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Mode:           mode,
		Pin:            s.Defaults.Pin,
		Baud:           s.Defaults.Baud,
		Skip:           skip,
		ExtraMaster:    s.Pair.ExtraMaster,
		ExtraSlave:     s.Pair.ExtraSlave,
		PairTimeout:    s.Defaults.PairTimeout,
		InquiryTimeout: s.Timeouts.Inquiry,
		RetryDelay:     s.Timeouts.RetryDelay,
		CommandTimeout: s.Timeouts.Command,
		PortWait:       s.Timeouts.PortWait,
	}, nil
}

// normalize fills defaults and resolves ports. It returns the first
// validation error wrapped in ErrInvalidConfig.
func (c *Config) normalize() error {
	if c.PairTimeout <= 0 {
		c.PairTimeout = config.DefaultPairTimeout
	}
	if c.InquiryTimeout <= 0 {
		c.InquiryTimeout = config.DefaultInquiry
	}
	if c.Skip == nil {
		c.Skip = StepSet{}
	}

	switch c.Mode {
	case ModeOne:
		port := c.Port
		if port == "" {
			port = c.SlavePort
		}
		if port == "" {
			port = c.MasterPort
		}
		if port == "" && !c.DryRun {
			return fmt.Errorf("%w: mode one needs a port", ErrInvalidConfig)
		}
		if c.SlavePort != "" && c.MasterPort != "" && c.SlavePort != c.MasterPort {
			return fmt.Errorf("%w: mode one uses a single port, got %s and %s", ErrInvalidConfig, c.SlavePort, c.MasterPort)
		}
		c.Port, c.SlavePort, c.MasterPort = port, port, port
	case ModeTwo:
		if !c.DryRun && (c.SlavePort == "" || c.MasterPort == "") {
			return fmt.Errorf("%w: mode two needs a master and a slave port", ErrInvalidConfig)
		}
		if c.SlavePort != "" && c.SlavePort == c.MasterPort {
			return fmt.Errorf("%w: mode two needs distinct ports, both are %s", ErrInvalidConfig, c.SlavePort)
		}
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, c.Mode)
	}

	if c.CacheKey == "" {
		c.CacheKey = paircache.KeyForPort(c.SlavePort)
	}

	if !c.Skip.Has(StepPin) && !config.ValidPin(c.Pin) {
		return fmt.Errorf("%w: pin must be 4 digits, got %q", ErrInvalidConfig, c.Pin)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", ErrInvalidConfig, c.Baud)
	}
	for role, name := range map[string]string{"master": c.NameMaster, "slave": c.NameSlave} {
		if err := validName(name); err != nil {
			return fmt.Errorf("%w: %s name: %v", ErrInvalidConfig, role, err)
		}
	}
	if c.TargetAddress != "" {
		if _, ok := at.ParseAddress(c.TargetAddress); !ok {
			return fmt.Errorf("%w: target address %q is not NAP:UAP:LAP", ErrInvalidConfig, c.TargetAddress)
		}
	}
	return nil
}

func validName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("longer than %d characters", MaxNameLength)
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return fmt.Errorf("contains non-printable or non-ASCII character %q", r)
		}
	}
	return nil
}
