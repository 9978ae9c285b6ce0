// Package dialect describes the AT vocabulary of HC-05 and HC-06 firmware.
//
// Both families accept the same operations under different spellings. A
// Dialect turns an operation into an at.Command; callers never branch on the
// module type themselves. Capabilities one family lacks are reported through
// the ok / reliable results rather than errors:
//
//   - HC-06 has no ROLE command and cannot act as master
//   - HC-06 answers AT+ADDR? on some firmware builds only
//   - HC-06 takes a baud code from a fixed table instead of the rate
//
// MasterDialect adds the operations needed to connect to a slave. Only
// HC-05 implements it; AsMaster reports ErrUnsupportedAsMaster otherwise.
package dialect
