package pairing

import (
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/configurator"
)

// Entry is one command of the run transcript.
type Entry struct {
	Phase  Phase
	Role   string
	Port   string
	Result at.Result
}

// StepResult records bind, pair or link.
type StepResult struct {
	Attempted bool
	Skipped   bool
	OK        bool
	Result    at.Result
	Err       error
}

// Preview holds the rendered commands of a dry run.
type Preview struct {
	Slave  []string
	Master []string
}

// Session is the result of a run. It is valid in every terminal state and
// holds everything produced up to that point.
type Session struct {
	ID   string
	Mode Mode

	MasterPort string
	SlavePort  string

	SlaveFacts  configurator.Facts
	MasterFacts configurator.Facts

	Address       *at.Address
	AddressSource AddressSource

	Bind StepResult
	Pair StepResult
	Link StepResult

	Status Status
	Phase  Phase

	// Phases lists every phase entered, in order.
	Phases []Phase

	Transcript []Entry
	Warnings   []string

	// Err is the cause of Failed, nil otherwise.
	Err error

	Preview *Preview

	StartedAt  time.Time
	FinishedAt time.Time
}

// Visited reports whether the run entered p.
func (s *Session) Visited(p Phase) bool {
	for _, v := range s.Phases {
		if v == p {
			return true
		}
	}
	return false
}
