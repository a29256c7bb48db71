// Package preflight provides readiness checks for the services and
// filesystem paths imgsauce depends on.
//
// The scan and review commands call RunAll before touching any file and
// stop when a check fails, so a missing data directory or rejected
// credentials never surface halfway through a directory. The status command
// renders the same results alongside SystemDeps.
package preflight
