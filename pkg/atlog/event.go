package atlog

import "time"

// Event is one captured occurrence on an AT link or in a pairing run.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID correlates all events of one detection, setup or pairing run.
	RunID string `cbor:"2,keyasint,omitempty"`

	// Port is the serial device the event belongs to.
	Port string `cbor:"3,keyasint,omitempty"`

	// Direction of the traffic (OUT for commands, IN for replies).
	Direction Direction `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// Role is "slave" or "master" during pairing.
	Role string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Exchange    *ExchangeEvent    `cbor:"7,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"8,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"9,keyasint,omitempty"`
}

// Direction indicates the direction of traffic.
type Direction uint8

const (
	// DirectionIn is traffic received from the module.
	DirectionIn Direction = 0
	// DirectionOut is traffic sent to the module.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand is a command line written to the module.
	CategoryCommand Category = 0
	// CategoryResponse is the reply collected for one attempt.
	CategoryResponse Category = 1
	// CategoryTimeout marks an attempt that saw no terminal token in time.
	CategoryTimeout Category = 2
	// CategoryState is an orchestration state change.
	CategoryState Category = 3
	// CategoryError is an I/O or validation error.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryResponse:
		return "RESPONSE"
	case CategoryTimeout:
		return "TIMEOUT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExchangeEvent captures one attempt of one command.
type ExchangeEvent struct {
	// Step is the plan step identifier (e.g. "name", "bind").
	Step string `cbor:"1,keyasint,omitempty"`

	// Text is the literal command line or the literal reply.
	Text string `cbor:"2,keyasint"`

	// Attempt is the 1-based attempt number.
	Attempt int `cbor:"3,keyasint"`

	// Outcome is set on replies: "ok", "error" or "timeout".
	Outcome string `cbor:"4,keyasint,omitempty"`

	// Code is the n of an ERROR:(n) reply, as printed by the module.
	Code string `cbor:"5,keyasint,omitempty"`

	// Elapsed is the time from write to terminal token or deadline.
	Elapsed time.Duration `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures a pairing phase transition.
type StateChangeEvent struct {
	// OldState is the previous phase (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new phase.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
