package configurator

import (
	"fmt"
	"strings"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/dialect"
)

// Facts describe a module: desired settings before a run, confirmed
// settings after it.
type Facts struct {
	Module      dialect.Module
	Name        string
	Pin         string
	Baud        int
	Role        dialect.Role
	Address     *at.Address
	ResetIssued bool
}

// String summarizes the facts for logs.
func (f Facts) String() string {
	parts := []string{f.Module.String()}
	if f.Name != "" {
		parts = append(parts, "name="+f.Name)
	}
	if f.Pin != "" {
		parts = append(parts, "pin="+f.Pin)
	}
	if f.Baud > 0 {
		parts = append(parts, fmt.Sprintf("baud=%d", f.Baud))
	}
	if f.Role != dialect.RoleUnset {
		parts = append(parts, "role="+f.Role.String())
	}
	if f.Address != nil {
		parts = append(parts, "addr="+f.Address.String())
	}
	if f.ResetIssued {
		parts = append(parts, "reset")
	}
	return strings.Join(parts, " ")
}

// Toggles enable plan steps. A disabled step never emits a command, even
// when its input is set.
type Toggles struct {
	Name    bool
	Pin     bool
	Baud    bool
	Role    bool
	Address bool
	Reset   bool

	// RequireAddress makes the ADDR? step critical.
	RequireAddress bool

	// Extra commands run after the built-in steps, never critical.
	Extra []string
}

// DefaultToggles enables name, PIN, baud and role.
func DefaultToggles() Toggles {
	return Toggles{Name: true, Pin: true, Baud: true, Role: true}
}
