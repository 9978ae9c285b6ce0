package serial

import (
	"errors"
	"fmt"

	goserial "go.bug.st/serial"
)

// Link errors.
var (
	// ErrPort is the parent of every error that makes a device unreachable.
	ErrPort = errors.New("serial port error")

	ErrPortBusy     = fmt.Errorf("%w: device busy", ErrPort)
	ErrPortNotFound = fmt.Errorf("%w: device not found", ErrPort)
	ErrAccessDenied = fmt.Errorf("%w: access denied", ErrPort)

	// ErrTimeout is returned by ReadLine when no line arrives in time.
	ErrTimeout = errors.New("read timeout")

	// ErrClosed is returned by operations on a closed link.
	ErrClosed = errors.New("link closed")
)

// OpenError describes a failed Open.
type OpenError struct {
	Port  string
	Err   error // one of the ErrPort sentinels
	Cause error // underlying driver error, may be nil
}

func (e *OpenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("open %s: %v (%v)", e.Port, e.Err, e.Cause)
	}
	return fmt.Sprintf("open %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// classifyOpenError maps driver errors onto the ErrPort sentinels.
func classifyOpenError(port string, err error) error {
	var pe *goserial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case goserial.PortBusy:
			return &OpenError{Port: port, Err: ErrPortBusy, Cause: err}
		case goserial.PortNotFound:
			return &OpenError{Port: port, Err: ErrPortNotFound, Cause: err}
		case goserial.PermissionDenied:
			return &OpenError{Port: port, Err: ErrAccessDenied, Cause: err}
		}
	}
	return &OpenError{Port: port, Err: ErrPort, Cause: err}
}
