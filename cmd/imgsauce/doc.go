// Package main hosts the imgsauce CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the catalog and the
// remote clients into the scan and review orchestrators, and exposes status,
// scheduling and configuration helpers. Commands stay thin: behaviour lives
// in the internal packages and is surfaced here.
package main
