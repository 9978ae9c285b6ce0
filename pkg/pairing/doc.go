// Package pairing configures one module as slave and another as master and
// connects the master to the slave's address.
//
// # Phases
//
// A run walks a fixed sequence of phases:
//
//	Init → SlavePhase → AddressResolution → SwapPrompt (mode one) →
//	MasterPhase → BindPhase → PairPhase → LinkPhase → Done | Failed
//
// Init validates the Config. SlavePhase detects and configures the slave.
// AddressResolution takes the slave's reported address, a supplied address,
// an inquiry scan result picked by a Selector (mode two) or the cached
// address for the port (mode one). SwapPrompt waits, without timeout, for
// the user to replace the slave with the master on the shared port.
// MasterPhase configures the master, then bind, pair and link run on the
// same link.
//
// # Outcome
//
// Only a bind failure, a configuration failure, a missing address or an
// invalid Config end in Failed. A rejected pair or link is recorded and
// lowers Session.Status from "linked" to "bound"; many modules pair on
// their own once both sides power up in data mode.
//
// Run never returns an error. Callers inspect Session.Status and
// Session.Err.
package pairing
