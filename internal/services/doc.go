// Package services defines shared utilities consumed by the scan and review
// orchestrators and the external integrations they drive.
//
// Key responsibilities:
//   - Context helpers that stamp catalog image IDs, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers tell a
//     run-ending failure from a per-file skip or an expected quota stop
//     without inspecting message text.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across commands.
package services
