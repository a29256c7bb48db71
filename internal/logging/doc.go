// Package logging assembles structured slog loggers and formatting helpers used
// across imgsauce commands.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so scan and review code can tag
// log lines with catalog image IDs, stages, and run IDs. Each scan or review
// run also tees its output into a per-run log file in the log directory, and
// old run logs are pruned by retention age. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
