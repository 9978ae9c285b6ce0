// Package atlog captures AT traffic for post-hoc diagnosis.
//
// Every command attempt produces a request event and either a response event
// carrying the literal reply or a timeout event. Orchestration phases add
// state change events. The trace is separate from operational logging (slog):
// it is a complete, machine-readable record of what was sent to a module and
// what came back.
//
// # Basic Usage
//
//	// Console while developing
//	capture := atlog.NewSlogAdapter(slog.Default())
//
//	// File for later inspection with hc-log
//	capture, _ := atlog.NewFileLogger("pair.atlog")
//
//	// Both
//	capture := atlog.NewMultiLogger(atlog.NewSlogAdapter(slog.Default()), fileLogger)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and use
// the .atlog extension. The hc-log tool views, summarizes and exports them.
package atlog
