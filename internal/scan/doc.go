// Package scan walks a directory of images and reconciles each file with
// the catalog and the image board.
//
// Per file the scanner pre-filters (extension, blacklisted path terms,
// already-cataloged paths), fingerprints the content, resolves duplicates
// and moves against the catalog, asks the board for an MD5 match, and only
// then spends a reverse image search. Search results go through
// classify.ClassifyResults: confirmed matches are favorited and the local
// copy removed, ambiguous candidates are stored for review.
//
// Errors are sorted with services.Classify. Per-file problems (vanished or
// undecodable files) skip to the next file, an exhausted search quota ends
// the run normally, and everything else aborts the remaining list. Catalog
// writes already made stay committed.
package scan
