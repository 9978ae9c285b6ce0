package dialect

import (
	"fmt"
	"strings"
)

// Module identifies a firmware family.
type Module uint8

const (
	// Unknown means detection could not tell the family apart.
	Unknown Module = iota
	// HC05 is the master-capable family with ROLE/BIND/PAIR/LINK.
	HC05
	// HC06 is the slave-only family.
	HC06
)

// String returns the module name.
func (m Module) String() string {
	switch m {
	case HC05:
		return "hc05"
	case HC06:
		return "hc06"
	default:
		return "unknown"
	}
}

// ParseModule parses "hc05", "hc-05", "hc06", "hc-06" or "auto"/"unknown".
func ParseModule(s string) (Module, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "hc05":
		return HC05, nil
	case "hc06":
		return HC06, nil
	case "", "auto", "unknown":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("invalid module %q: expected hc05, hc06 or auto", s)
	}
}

// Role is the connection role of a module.
type Role uint8

const (
	// RoleUnset leaves the role untouched.
	RoleUnset Role = iota
	// RoleSlave accepts connections.
	RoleSlave
	// RoleMaster initiates connections.
	RoleMaster
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleSlave:
		return "slave"
	case RoleMaster:
		return "master"
	default:
		return "unset"
	}
}

// ParseRole parses "slave", "master" or "" (unset).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slave":
		return RoleSlave, nil
	case "master":
		return RoleMaster, nil
	case "", "unset":
		return RoleUnset, nil
	default:
		return RoleUnset, fmt.Errorf("invalid role %q: expected slave or master", s)
	}
}
