package pairing

import (
	"fmt"
	"strings"
)

// Phase is a state of a pairing run.
type Phase uint8

const (
	PhaseInit Phase = iota
	PhaseSlave
	PhaseAddressResolution
	PhaseSwapPrompt
	PhaseMaster
	PhaseBind
	PhasePair
	PhaseLink
	PhaseDone
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhaseSlave:
		return "SlavePhase"
	case PhaseAddressResolution:
		return "AddressResolution"
	case PhaseSwapPrompt:
		return "SwapPrompt"
	case PhaseMaster:
		return "MasterPhase"
	case PhaseBind:
		return "BindPhase"
	case PhasePair:
		return "PairPhase"
	case PhaseLink:
		return "LinkPhase"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Status is the overall outcome of a run.
type Status string

const (
	// StatusLinked means bind, pair and link all succeeded.
	StatusLinked Status = "linked"
	// StatusBound means bind succeeded and pair or link did not.
	StatusBound Status = "bound"
	// StatusFailed means the run ended before or at bind.
	StatusFailed Status = "failed"
	// StatusPlanned is the outcome of a dry run.
	StatusPlanned Status = "planned"
)

// OverallStatus derives the status from the three connection steps. Bind
// is the only gating step.
func OverallStatus(bind, pair, link bool) Status {
	switch {
	case !bind:
		return StatusFailed
	case pair && link:
		return StatusLinked
	default:
		return StatusBound
	}
}

// Mode selects the pairing workflow.
type Mode uint8

const (
	// ModeTwo uses two ports connected at the same time.
	ModeTwo Mode = iota
	// ModeOne uses one port and a physical module swap.
	ModeOne
)

// String returns "one" or "two".
func (m Mode) String() string {
	if m == ModeOne {
		return "one"
	}
	return "two"
}

// ParseMode parses "one"/"1" or "two"/"2". Empty means two.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one", "1":
		return ModeOne, nil
	case "two", "2", "":
		return ModeTwo, nil
	default:
		return ModeTwo, fmt.Errorf("invalid mode %q: expected one or two", s)
	}
}

// AddressSource tells where the target address came from.
type AddressSource string

const (
	AddressNone     AddressSource = ""
	AddressFromADDR AddressSource = "addr"
	AddressSupplied AddressSource = "supplied"
	AddressInquiry  AddressSource = "inquiry"
	AddressCache    AddressSource = "cache"
)
