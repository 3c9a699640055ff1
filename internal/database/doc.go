// Package database stores check history in SQLite.
//
// Every check run is saved as a row in the check_runs table: the target URL,
// the time of the run, the full report as JSON, a PASS/FAIL/SKIP summary and
// the page content fingerprint. The compare command reads these rows to show
// what changed between runs.
//
// The driver is modernc.org/sqlite, which needs no cgo. The database file
// lives in the XDG data directory by default.
package database
