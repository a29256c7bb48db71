// Package classify decides what a scanned file is: a redundant copy of a
// cataloged image, a cataloged image that moved, or new content whose
// reverse-search results need sorting into confirmed, banned, review, or
// no-match dispositions.
//
// The functions here perform no writes. Callers apply the returned decision to
// the catalog and the filesystem.
package classify
