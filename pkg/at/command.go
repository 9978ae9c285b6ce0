package at

import (
	"strings"
	"time"
)

// DefaultTimeout applies to commands that leave Timeout unset.
const DefaultTimeout = 2 * time.Second

// TimeoutMarker is recorded as the reply of an attempt that timed out
// without any response bytes.
const TimeoutMarker = "<timeout>"

// Command is one AT command with its delivery policy.
type Command struct {
	// ID names the plan step ("name", "pin", "bind", ...).
	ID string

	// Text is the command line without line ending.
	Text string

	// Alternates are tried in order after Text fails.
	Alternates []string

	// Timeout bounds each attempt. Zero means the session default.
	Timeout time.Duration

	// MaxAttempts is the number of attempts per spelling (minimum 1).
	MaxAttempts int

	// Critical failures abort the enclosing plan.
	Critical bool

	// RetrySafe allows retrying after an explicit rejection.
	RetrySafe bool
}

// Texts returns Text followed by its alternates.
func (c Command) Texts() []string {
	out := make([]string, 0, 1+len(c.Alternates))
	out = append(out, c.Text)
	return append(out, c.Alternates...)
}

func (c Command) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Outcome classifies how a command attempt ended.
type Outcome uint8

const (
	// NotSent means no attempt was made.
	NotSent Outcome = iota
	// AckOK means the module acknowledged the command.
	AckOK
	// AckError means the module explicitly rejected the command.
	AckError
	// Timeout means no terminal token arrived before the deadline.
	Timeout
)

// String returns the outcome name used in transcripts and capture logs.
func (o Outcome) String() string {
	switch o {
	case NotSent:
		return "not-sent"
	case AckOK:
		return "ok"
	case AckError:
		return "error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Exchange is one attempt: the literal request and the literal reply.
type Exchange struct {
	Attempt  int
	Sent     string
	Response string
	Outcome  Outcome
	Code     string
	Elapsed  time.Duration
}

// Result is the outcome of Send.
type Result struct {
	Command   Command
	Sent      string // spelling used by the last attempt
	Raw       string // reply lines of the last attempt, newline separated
	Outcome   Outcome
	Code      string // n of ERROR:(n), empty otherwise
	Attempts  int
	Elapsed   time.Duration
	Exchanges []Exchange
}

// OK reports whether the command was acknowledged.
func (r Result) OK() bool {
	return r.Outcome == AckOK
}

// Lines returns the non-empty reply lines of the last attempt.
func (r Result) Lines() []string {
	var out []string
	for _, l := range strings.Split(r.Raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
