// Package configurator builds and runs ordered AT command plans that set a
// module's name, PIN, baud rate and role and read back its address.
//
// A Plan is built once from the desired Facts and a set of Toggles and is
// immutable afterwards. Steps appear in a fixed order:
//
//	NAME → PIN → BAUD/UART → ROLE → ADDR? → RESET → extra commands
//
// Every enabled step's input is checked while building, so a missing value
// fails with ErrMissingInput before anything is transmitted. Execute runs
// the plan through an at.Session, stops at the first critical failure and
// records non-critical failures as warnings.
package configurator
