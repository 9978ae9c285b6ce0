package pairing

import (
	"fmt"
	"slices"
	"strings"
)

// Skippable step names.
const (
	StepName  = "name"
	StepPin   = "pin"
	StepAddr  = "addr"
	StepOrgl  = "orgl"
	StepRmaad = "rmaad"
	StepInit  = "init"
	StepPair  = "pair"
	StepLink  = "link"
	StepReset = "reset"
)

// skippable lists the steps a run may omit. UART, ROLE, CMODE and BIND are
// required for a working pair and cannot be skipped.
var skippable = []string{StepName, StepPin, StepAddr, StepOrgl, StepRmaad, StepInit, StepPair, StepLink, StepReset}

// StepSet is a set of step names.
type StepSet map[string]bool

// ParseSteps builds a StepSet from names, rejecting unknown or required
// steps.
func ParseSteps(names []string) (StepSet, error) {
	set := make(StepSet)
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !slices.Contains(skippable, part) {
				return nil, fmt.Errorf("%w: step %q cannot be skipped (skippable: %s)",
					ErrInvalidConfig, part, strings.Join(skippable, ", "))
			}
			set[part] = true
		}
	}
	return set, nil
}

// Has reports whether name is in the set. A nil set is empty.
func (s StepSet) Has(name string) bool {
	return s[name]
}

// Names returns the set's names, sorted.
func (s StepSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
