// Package logs reads back the per-run log files written during scans and
// reviews: locating the newest run, tailing its last records and rendering
// the JSON lines for a terminal.
package logs
