// Package fakemodule simulates HC-05 and HC-06 modules behind serial.Link
// for tests. A Bench maps port names to modules and implements
// serial.Dialer; swapping the module on a port models the physical swap of
// single-port pairing.
package fakemodule

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hclink/hclink-go/pkg/serial"
)

// Family selects the simulated command vocabulary.
type Family int

const (
	HC05 Family = iota
	HC06
)

type override struct {
	prefix string
	lines  []string
}

// Module is one simulated device. Exported state fields reflect the
// settings applied so far and may be read after a run.
type Module struct {
	Family  Family
	Profile serial.Profile // the profile its AT mode answers on
	Address string         // colon form, empty when unknown

	// Nearby lists the addresses reported by AT+INQ.
	Nearby []string

	mu        sync.Mutex
	overrides []override
	received  []string

	Name   string
	Pin    string
	Baud   string
	Role   string
	Bound  string
	Paired string
	Linked string
	Resets int
}

// NewHC05 returns an HC-05 in AT mode at 38400 baud with CRLF framing.
func NewHC05(address string) *Module {
	return &Module{
		Family:  HC05,
		Profile: serial.Profile{Baud: 38400, LineEnding: serial.CRLF},
		Address: address,
	}
}

// NewHC06 returns an HC-06 at 9600 baud without line endings.
func NewHC06() *Module {
	return &Module{
		Family:  HC06,
		Profile: serial.Profile{Baud: 9600, LineEnding: serial.None},
	}
}

// On makes commands starting with prefix answer lines instead of the
// default reply. No lines means silence. Later calls take precedence.
func (m *Module) On(prefix string, lines ...string) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = append([]override{{prefix: prefix, lines: lines}}, m.overrides...)
	return m
}

// Received returns every command line the module got on a matching profile.
func (m *Module) Received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.received...)
}

// Count returns how many received commands start with prefix.
func (m *Module) Count(prefix string) int {
	n := 0
	for _, c := range m.Received() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *Module) respond(cmd string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.received = append(m.received, cmd)
	for _, o := range m.overrides {
		if strings.HasPrefix(cmd, o.prefix) {
			return o.lines
		}
	}
	if m.Family == HC06 {
		return m.respondHC06(cmd)
	}
	return m.respondHC05(cmd)
}

func (m *Module) respondHC05(cmd string) []string {
	ok := []string{"OK"}
	switch {
	case cmd == "AT":
		return ok
	case cmd == "AT+ROLE?":
		role := "0"
		if m.Role == "1" {
			role = "1"
		}
		return []string{"+ROLE:" + role, "OK"}
	case cmd == "AT+ADDR?":
		if m.Address == "" {
			return []string{"ERROR:(0)"}
		}
		return []string{"+ADDR:" + strings.ToLower(m.Address), "OK"}
	case cmd == "AT+INQ":
		var lines []string
		for _, a := range m.Nearby {
			lines = append(lines, "+INQ:"+a+",1F00,7FFF")
		}
		return append(lines, "OK")
	case strings.HasPrefix(cmd, "AT+NAME="):
		m.Name = strings.TrimPrefix(cmd, "AT+NAME=")
	case strings.HasPrefix(cmd, "AT+PSWD="):
		m.Pin = strings.TrimPrefix(cmd, "AT+PSWD=")
	case strings.HasPrefix(cmd, "AT+PIN="):
		m.Pin = strings.TrimPrefix(cmd, "AT+PIN=")
	case strings.HasPrefix(cmd, "AT+UART="):
		m.Baud, _, _ = strings.Cut(strings.TrimPrefix(cmd, "AT+UART="), ",")
	case strings.HasPrefix(cmd, "AT+ROLE="):
		m.Role = strings.TrimPrefix(cmd, "AT+ROLE=")
	case strings.HasPrefix(cmd, "AT+BIND="):
		m.Bound = strings.TrimPrefix(cmd, "AT+BIND=")
	case strings.HasPrefix(cmd, "AT+PAIR="):
		// AT+PAIR=<addr>,<secs>
		addr := strings.TrimPrefix(cmd, "AT+PAIR=")
		if i := strings.LastIndexByte(addr, ','); i >= 0 {
			addr = addr[:i]
		}
		m.Paired = addr
	case strings.HasPrefix(cmd, "AT+LINK="):
		m.Linked = strings.TrimPrefix(cmd, "AT+LINK=")
	case cmd == "AT+RESET":
		m.Resets++
	case cmd == "AT+ORGL", cmd == "AT+RMAAD", cmd == "AT+INIT", strings.HasPrefix(cmd, "AT+CMODE="):
	default:
		return []string{"ERROR:(0)"}
	}
	return ok
}

func (m *Module) respondHC06(cmd string) []string {
	switch {
	case cmd == "AT":
		return []string{"OK"}
	case strings.HasPrefix(cmd, "AT+NAME") && !strings.HasPrefix(cmd, "AT+NAME="):
		m.Name = strings.TrimPrefix(cmd, "AT+NAME")
		return []string{"OKsetname"}
	case strings.HasPrefix(cmd, "AT+PIN") && !strings.HasPrefix(cmd, "AT+PIN="):
		m.Pin = strings.TrimPrefix(cmd, "AT+PIN")
		return []string{"OKsetPIN"}
	case strings.HasPrefix(cmd, "AT+BAUD"):
		m.Baud = strings.TrimPrefix(cmd, "AT+BAUD")
		return []string{"OK" + m.Baud}
	}
	return nil
}

// String describes the module for test failure messages.
func (m *Module) String() string {
	fam := "HC-05"
	if m.Family == HC06 {
		fam = "HC-06"
	}
	return fmt.Sprintf("%s(%s, %s)", fam, m.Address, m.Profile)
}
