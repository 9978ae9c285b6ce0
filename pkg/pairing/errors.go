package pairing

import "errors"

// Pairing errors.
var (
	ErrInvalidConfig = errors.New("invalid pairing config")
	ErrBindFailed    = errors.New("bind failed")
	ErrPairFailed    = errors.New("pair failed")
	ErrLinkFailed    = errors.New("link failed")
	ErrNoSelection   = errors.New("no address selected")
)
