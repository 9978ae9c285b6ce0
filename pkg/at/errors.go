package at

import (
	"errors"
	"fmt"
)

// Command errors.
var (
	// ErrCommandFailed is the parent of every non-OK command outcome.
	ErrCommandFailed = errors.New("command failed")

	ErrAckError = fmt.Errorf("%w: rejected by module", ErrCommandFailed)
	ErrTimeout  = fmt.Errorf("%w: no terminal response", ErrCommandFailed)
)

// CommandError reports a command that did not end in AckOK.
type CommandError struct {
	ID       string
	Text     string
	Outcome  Outcome
	Code     string
	Attempts int
}

func (e *CommandError) Error() string {
	switch e.Outcome {
	case AckError:
		if e.Code != "" {
			return fmt.Sprintf("%s: rejected with ERROR:(%s) after %d attempt(s)", e.Text, e.Code, e.Attempts)
		}
		return fmt.Sprintf("%s: rejected after %d attempt(s)", e.Text, e.Attempts)
	default:
		return fmt.Sprintf("%s: no response after %d attempt(s)", e.Text, e.Attempts)
	}
}

func (e *CommandError) Unwrap() error {
	if e.Outcome == AckError {
		return ErrAckError
	}
	return ErrTimeout
}
