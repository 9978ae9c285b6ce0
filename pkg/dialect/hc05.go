package dialect

import (
	"fmt"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
)

// HC05Dialect speaks the "AT+CMD=value" vocabulary with CRLF framing.
type HC05Dialect struct{}

func (HC05Dialect) Module() Module { return HC05 }

func (HC05Dialect) Probe() at.Command { return probe() }

func (HC05Dialect) SetName(name string) at.Command {
	return at.Command{ID: "name", Text: "AT+NAME=" + name, Timeout: CommandTimeout, MaxAttempts: 1, Critical: true, RetrySafe: true}
}

// SetPin tries AT+PSWD first; older firmware only knows AT+PIN.
func (HC05Dialect) SetPin(pin string) at.Command {
	return at.Command{
		ID:          "pin",
		Text:        "AT+PSWD=" + pin,
		Alternates:  []string{"AT+PIN=" + pin},
		Timeout:     CommandTimeout,
		MaxAttempts: 1,
		Critical:    true,
		RetrySafe:   true,
	}
}

// SetBaud sets the data-mode UART to baud, 1 stop bit, no parity.
func (HC05Dialect) SetBaud(baud int) (at.Command, error) {
	if baud <= 0 {
		return at.Command{}, fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
	return at.Command{
		ID:          "uart",
		Text:        fmt.Sprintf("AT+UART=%d,0,0", baud),
		Timeout:     CommandTimeout,
		MaxAttempts: 1,
		Critical:    true,
		RetrySafe:   true,
	}, nil
}

func (HC05Dialect) SetRole(r Role) (at.Command, bool) {
	var v string
	switch r {
	case RoleSlave:
		v = "0"
	case RoleMaster:
		v = "1"
	default:
		return at.Command{}, false
	}
	return at.Command{ID: "role", Text: "AT+ROLE=" + v, Timeout: CommandTimeout, MaxAttempts: 1, Critical: true, RetrySafe: true}, true
}

func (HC05Dialect) QueryAddress() (at.Command, bool) {
	return at.Command{ID: "addr", Text: "AT+ADDR?", Timeout: CommandTimeout, MaxAttempts: 2, RetrySafe: true}, true
}

// Reset restarts the module. Some firmware restarts without replying.
func (HC05Dialect) Reset() (at.Command, bool) {
	return at.Command{ID: "reset", Text: "AT+RESET", Timeout: ResetTimeout, MaxAttempts: 1}, true
}

func (HC05Dialect) RestoreDefaults() at.Command {
	return at.Command{ID: "orgl", Text: "AT+ORGL", Timeout: ResetTimeout, MaxAttempts: 1}
}

func (HC05Dialect) ConnectMode(anyAddress bool) at.Command {
	v := "0"
	if anyAddress {
		v = "1"
	}
	return at.Command{ID: "cmode", Text: "AT+CMODE=" + v, Timeout: CommandTimeout, MaxAttempts: 1, Critical: true, RetrySafe: true}
}

func (HC05Dialect) ClearPaired() at.Command {
	return at.Command{ID: "rmaad", Text: "AT+RMAAD", Timeout: ClearTimeout, MaxAttempts: 1}
}

// Init fails with ERROR:(17) when the library is already running; callers
// treat it as optional.
func (HC05Dialect) Init() at.Command {
	return at.Command{ID: "init", Text: "AT+INIT", Timeout: InitTimeout, MaxAttempts: 1}
}

func (HC05Dialect) Inquire(scan time.Duration) at.Command {
	return at.Command{ID: "inq", Text: "AT+INQ", Timeout: scan, MaxAttempts: 1}
}

func (HC05Dialect) Bind(a at.Address) at.Command {
	return at.Command{ID: "bind", Text: "AT+BIND=" + a.Comma(), Timeout: BindTimeout, MaxAttempts: 2, Critical: true, RetrySafe: true}
}

// Pair gives the module window to complete pairing. ERROR:(16) is common
// when the slave is not powered; it is never retried here.
func (HC05Dialect) Pair(a at.Address, window time.Duration) at.Command {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return at.Command{
		ID:          "pair",
		Text:        fmt.Sprintf("AT+PAIR=%s,%d", a.Comma(), secs),
		Timeout:     time.Duration(secs)*time.Second + PairMargin,
		MaxAttempts: 1,
	}
}

// Link is not retry-safe: repeating it against an unready slave only
// delays the caller.
func (HC05Dialect) Link(a at.Address) at.Command {
	return at.Command{ID: "link", Text: "AT+LINK=" + a.Comma(), Timeout: LinkTimeout, MaxAttempts: 1}
}

var _ MasterDialect = HC05Dialect{}
