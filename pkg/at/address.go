package at

import (
	"fmt"
	"regexp"
	"strings"
)

// Address is a Bluetooth device address split the way HC-05 firmware
// prints it: NAP (4 hex digits), UAP (2) and LAP (6).
type Address struct {
	NAP string
	UAP string
	LAP string
}

// HC-05 drops leading zeros ("+ADDR:2016:4:80372"), so each part accepts
// fewer digits and is padded on parse.
var addressPattern = regexp.MustCompile(`(?i)\b([0-9A-F]{1,4})[:,]([0-9A-F]{1,2})[:,]([0-9A-F]{1,6})\b`)

// String returns the colon form, e.g. "98D3:31:FB2211".
func (a Address) String() string {
	return a.NAP + ":" + a.UAP + ":" + a.LAP
}

// Comma returns the form AT+BIND, AT+PAIR and AT+LINK take, e.g. "98D3,31,FB2211".
func (a Address) Comma() string {
	return a.NAP + "," + a.UAP + "," + a.LAP
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseAddress finds the first address in s. It accepts the colon and the
// comma form with or without a "+ADDR:" / "+INQ:" prefix.
func ParseAddress(s string) (Address, bool) {
	m := addressPattern.FindStringSubmatch(s)
	if m == nil {
		return Address{}, false
	}
	return Address{
		NAP: pad(m[1], 4),
		UAP: pad(m[2], 2),
		LAP: pad(m[3], 6),
	}, true
}

// MustParseAddress is like ParseAddress but panics on failure.
// It is meant for constants in tests and examples.
func MustParseAddress(s string) Address {
	a, ok := ParseAddress(s)
	if !ok {
		panic(fmt.Sprintf("at: invalid address %q", s))
	}
	return a
}

// ParseAddresses returns the first address of every line in raw, in order
// and without duplicates. It is used for AT+INQ output.
func ParseAddresses(raw string) []Address {
	var out []Address
	seen := make(map[Address]bool)
	for _, line := range strings.Split(raw, "\n") {
		a, ok := ParseAddress(line)
		if !ok || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func pad(s string, n int) string {
	s = strings.ToUpper(s)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s
}
