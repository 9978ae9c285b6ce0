package configurator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/dialect"
)

// ErrMissingInput is returned when an enabled step has no input value.
var ErrMissingInput = errors.New("missing input")

// ExtraTimeout bounds each extra command.
const ExtraTimeout = 2500 * time.Millisecond

// Plan is an immutable ordered list of commands for one module.
type Plan struct {
	module   dialect.Module
	desired  Facts
	commands []at.Command
}

// Module returns the dialect family the plan was built for.
func (p Plan) Module() dialect.Module { return p.module }

// Desired returns the facts the plan was built from.
func (p Plan) Desired() Facts { return p.desired }

// Commands returns a copy of the plan's commands.
func (p Plan) Commands() []at.Command {
	out := make([]at.Command, len(p.commands))
	copy(out, p.commands)
	for i := range out {
		out[i].Alternates = append([]string(nil), out[i].Alternates...)
	}
	return out
}

// Len returns the number of commands.
func (p Plan) Len() int { return len(p.commands) }

// BuildPlan builds the plan for d from the desired facts. It fails with
// ErrMissingInput or dialect.ErrUnsupportedBaud before any I/O.
func BuildPlan(d dialect.Dialect, desired Facts, t Toggles) (Plan, error) {
	desired.Module = d.Module()
	p := Plan{module: d.Module(), desired: desired}

	if t.Name {
		if desired.Name == "" {
			return Plan{}, fmt.Errorf("%w: name step enabled without a name", ErrMissingInput)
		}
		p.commands = append(p.commands, d.SetName(desired.Name))
	}
	if t.Pin {
		if desired.Pin == "" {
			return Plan{}, fmt.Errorf("%w: pin step enabled without a pin", ErrMissingInput)
		}
		p.commands = append(p.commands, d.SetPin(desired.Pin))
	}
	if t.Baud {
		if desired.Baud == 0 {
			return Plan{}, fmt.Errorf("%w: baud step enabled without a baud rate", ErrMissingInput)
		}
		cmd, err := d.SetBaud(desired.Baud)
		if err != nil {
			return Plan{}, err
		}
		p.commands = append(p.commands, cmd)
	}
	if t.Role && supportsRole(d) {
		cmd, ok := d.SetRole(desired.Role)
		if !ok {
			return Plan{}, fmt.Errorf("%w: role step enabled without a role", ErrMissingInput)
		}
		p.commands = append(p.commands, cmd)
	}
	if t.Address {
		cmd, _ := d.QueryAddress()
		cmd.Critical = t.RequireAddress
		p.commands = append(p.commands, cmd)
	}
	if t.Reset {
		if cmd, ok := d.Reset(); ok {
			p.commands = append(p.commands, cmd)
		}
	}
	for i, text := range t.Extra {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		p.commands = append(p.commands, at.Command{
			ID:          fmt.Sprintf("extra-%d", i+1),
			Text:        text,
			Timeout:     ExtraTimeout,
			MaxAttempts: 1,
		})
	}
	return p, nil
}

// supportsRole reports whether d has a role command at all.
func supportsRole(d dialect.Dialect) bool {
	_, ok := d.SetRole(dialect.RoleSlave)
	return ok
}

// Render returns the command lines of plan in order, for previews.
func Render(plan Plan) []string {
	out := make([]string, 0, len(plan.commands))
	for _, c := range plan.commands {
		out = append(out, c.Text)
	}
	return out
}

// Describe renders one line per command with its alternates and policy,
// e.g. "AT+NAMEbeacon (or AT+NAME=beacon) [critical]".
func Describe(plan Plan) []string {
	out := make([]string, 0, len(plan.commands))
	for _, c := range plan.commands {
		var b strings.Builder
		b.WriteString(c.Text)
		if len(c.Alternates) > 0 {
			b.WriteString(" (or " + strings.Join(c.Alternates, ", ") + ")")
		}
		if c.Critical {
			b.WriteString(" [critical]")
		} else {
			b.WriteString(" [optional]")
		}
		out = append(out, b.String())
	}
	return out
}
