// Package paircache stores slave addresses across process restarts.
//
// Single-port pairing configures the slave, waits while the user swaps
// modules and then configures the master. The slave's address is written
// here before the swap so that a later run, or the same run after a
// restart, can bind the master to it.
//
// Two backends share the Store contract: FileStore keeps a JSON map in one
// file, SQLStore keeps a table in a SQLite database. Both are last writer
// wins and never prune entries. An unreadable or corrupt store reads as
// empty.
package paircache
