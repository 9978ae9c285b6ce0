// Package serial provides the byte-level link to an HC-05 / HC-06 module.
//
// A Link carries ASCII command lines to the module and returns its response
// lines. The concrete Port is backed by go.bug.st/serial and opened with a
// Profile, the (baud rate, line ending) pair the module's AT mode expects.
//
// # Line Endings
//
// HC-05 firmware expects CRLF after each command and terminates its replies
// the same way. Most HC-06 firmware expects no terminator at all and replies
// with bare tokens such as "OKsetname". ReadLine therefore treats a quiet gap
// after received bytes as the end of a line.
//
// # Exclusivity
//
// Holding a Port implies exclusive access to the device. Opening the same
// device twice within one process fails with ErrPortBusy until the first
// handle is closed.
package serial
