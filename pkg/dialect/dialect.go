package dialect

import (
	"errors"
	"fmt"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
)

// Capability errors.
var (
	ErrUnsupportedBaud     = errors.New("unsupported baud rate")
	ErrUnsupportedAsMaster = errors.New("module cannot act as master")
)

// Step timeouts, from observed module behaviour.
const (
	CommandTimeout = 2 * time.Second
	ResetTimeout   = 3 * time.Second
	ClearTimeout   = 5 * time.Second
	InitTimeout    = 8 * time.Second
	BindTimeout    = 4 * time.Second
	LinkTimeout    = 15 * time.Second

	// PairMargin is added to the pairing window the module is given.
	PairMargin = 5 * time.Second
)

// Dialect builds commands for one firmware family.
type Dialect interface {
	Module() Module

	// Probe is the minimal "AT" liveness check.
	Probe() at.Command

	SetName(name string) at.Command
	SetPin(pin string) at.Command

	// SetBaud fails with ErrUnsupportedBaud for rates the family cannot take.
	SetBaud(baud int) (at.Command, error)

	// SetRole returns ok=false when the family has no role command.
	SetRole(r Role) (cmd at.Command, ok bool)

	// QueryAddress returns reliable=false when the reply is firmware dependent.
	QueryAddress() (cmd at.Command, reliable bool)

	// Reset returns ok=false when the family has no reset command.
	Reset() (cmd at.Command, ok bool)
}

// MasterDialect adds the operations a master needs to reach a slave.
type MasterDialect interface {
	Dialect

	// RestoreDefaults resets the module to factory settings (AT+ORGL).
	RestoreDefaults() at.Command

	// ConnectMode 0 restricts connections to the bound address.
	ConnectMode(anyAddress bool) at.Command

	// ClearPaired removes all remembered devices.
	ClearPaired() at.Command

	// Init starts the SPP profile library.
	Init() at.Command

	// Inquire scans for devices for up to scan.
	Inquire(scan time.Duration) at.Command

	Bind(a at.Address) at.Command
	Pair(a at.Address, window time.Duration) at.Command
	Link(a at.Address) at.Command
}

// ForModule returns the dialect for m. Unknown falls back to HC-05, the
// more common family and the only one with a full vocabulary.
func ForModule(m Module) Dialect {
	if m == HC06 {
		return HC06Dialect{}
	}
	return HC05Dialect{}
}

// AsMaster returns d as a MasterDialect or ErrUnsupportedAsMaster.
func AsMaster(d Dialect) (MasterDialect, error) {
	md, ok := d.(MasterDialect)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no ROLE/BIND/PAIR/LINK", ErrUnsupportedAsMaster, d.Module())
	}
	return md, nil
}

func probe() at.Command {
	return at.Command{ID: "at", Text: "AT", Timeout: CommandTimeout, MaxAttempts: 2, Critical: true, RetrySafe: true}
}
