// Package catalog persists scanned images and their reverse-search match
// candidates in SQLite.
//
// The Store owns every persistence invariant: fingerprints and paths are
// unique, candidates cascade with their image, and status codes are checked
// against lookup tables. Queries bind all values as parameters; column names
// only come from the fixed whitelist in filter.go.
//
// Driver failures surface wrapped with services.ErrStorage. Schema changes bump
// the version in schema.go; users delete the catalog to adopt a new schema.
package catalog
