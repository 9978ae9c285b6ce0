// Package at sends AT commands to a module and classifies its replies.
//
// A Session wraps one serial.Link. Send writes a Command, collects response
// lines until a terminal token arrives or the command's timeout elapses, and
// retries within the command's attempt budget:
//
//   - a line starting with "OK" (OK, OK+..., OKsetname, OK9600) is AckOK
//   - "ERROR", "ERROR:(n)" and "FAIL" are AckError
//   - no terminal token before the deadline is Timeout
//
// Timeouts are always retried. AckError is retried only for commands marked
// RetrySafe; commands such as AT+LINK surface the rejection immediately.
// Alternate spellings of a command are tried in order once the attempts for
// the previous spelling are used up.
//
// Every attempt is kept in Result.Exchanges with the literal request and the
// literal reply (or TimeoutMarker), and is mirrored to an atlog.Logger.
package at
