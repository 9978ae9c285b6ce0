package dialect

import (
	"fmt"
	"slices"

	"github.com/hclink/hclink-go/pkg/at"
)

// HC06BaudCodes maps a data-mode rate to the AT+BAUD<code> argument.
var HC06BaudCodes = map[int]string{
	1200:    "1",
	2400:    "2",
	4800:    "3",
	9600:    "4",
	19200:   "5",
	38400:   "6",
	57600:   "7",
	115200:  "8",
	230400:  "9",
	460800:  "A",
	921600:  "B",
	1382400: "C",
}

// HC06Rates returns the rates HC-06 accepts, ascending.
func HC06Rates() []int {
	rates := make([]int, 0, len(HC06BaudCodes))
	for r := range HC06BaudCodes {
		rates = append(rates, r)
	}
	slices.Sort(rates)
	return rates
}

// HC06Dialect speaks the "AT+CMDvalue" vocabulary, usually unterminated.
type HC06Dialect struct{}

func (HC06Dialect) Module() Module { return HC06 }

func (HC06Dialect) Probe() at.Command { return probe() }

func (HC06Dialect) SetName(name string) at.Command {
	return at.Command{
		ID:          "name",
		Text:        "AT+NAME" + name,
		Alternates:  []string{"AT+NAME=" + name},
		Timeout:     CommandTimeout,
		MaxAttempts: 1,
		Critical:    true,
		RetrySafe:   true,
	}
}

func (HC06Dialect) SetPin(pin string) at.Command {
	return at.Command{
		ID:          "pin",
		Text:        "AT+PIN" + pin,
		Alternates:  []string{"AT+PSWD=" + pin},
		Timeout:     CommandTimeout,
		MaxAttempts: 1,
		Critical:    true,
		RetrySafe:   true,
	}
}

func (HC06Dialect) SetBaud(baud int) (at.Command, error) {
	code, ok := HC06BaudCodes[baud]
	if !ok {
		return at.Command{}, fmt.Errorf("%w: %d is not in the HC-06 table %v", ErrUnsupportedBaud, baud, HC06Rates())
	}
	return at.Command{ID: "uart", Text: "AT+BAUD" + code, Timeout: CommandTimeout, MaxAttempts: 1, Critical: true, RetrySafe: true}, nil
}

func (HC06Dialect) SetRole(Role) (at.Command, bool) {
	return at.Command{}, false
}

func (HC06Dialect) QueryAddress() (at.Command, bool) {
	return at.Command{ID: "addr", Text: "AT+ADDR?", Timeout: CommandTimeout, MaxAttempts: 1}, false
}

func (HC06Dialect) Reset() (at.Command, bool) {
	return at.Command{}, false
}

var _ Dialect = HC06Dialect{}
