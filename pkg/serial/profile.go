package serial

import (
	"fmt"
	"strings"
)

// LineEnding is the terminator appended to every command line.
type LineEnding uint8

const (
	// CRLF terminates commands with "\r\n".
	CRLF LineEnding = iota
	// None sends commands without a terminator.
	None
)

// Bytes returns the terminator bytes.
func (e LineEnding) Bytes() []byte {
	if e == CRLF {
		return []byte("\r\n")
	}
	return nil
}

// String returns the line ending name.
func (e LineEnding) String() string {
	switch e {
	case CRLF:
		return "CRLF"
	case None:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLineEnding parses "crlf" or "none" (case-insensitive).
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crlf":
		return CRLF, nil
	case "none", "":
		return None, nil
	default:
		return None, fmt.Errorf("invalid line ending %q: expected crlf or none", s)
	}
}

// Profile is the (baud rate, line ending) pair a module's AT mode expects.
type Profile struct {
	Baud       int
	LineEnding LineEnding
}

// String describes the profile, e.g. "38400 baud, line ending CRLF".
func (p Profile) String() string {
	return fmt.Sprintf("%d baud, line ending %s", p.Baud, p.LineEnding)
}

// DetectionProfiles lists the candidate profiles in probe priority order.
// 38400+CRLF is the usual HC-05 AT mode, 9600+NONE the usual HC-06 one.
var DetectionProfiles = []Profile{
	{Baud: 38400, LineEnding: CRLF},
	{Baud: 9600, LineEnding: None},
	{Baud: 38400, LineEnding: None},
	{Baud: 9600, LineEnding: CRLF},
}
