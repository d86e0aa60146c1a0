// Package storage provides file-based persistence for roster snapshots and change logs.
//
// Each tracked event owns three files in the data directory:
//
//	entrants_<event>.json  the current roster snapshot, overwritten every run
//	changes_<event>.json   the append-only list of change records
//	history_<event>.csv    one flattened row per change record
//
// The default storage location is ~/.local/share/ultra-entrants/. A single
// process is assumed to write a given event's files at a time.
package storage
