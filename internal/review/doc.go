// Package review walks images whose reverse search produced only
// ambiguous candidates and applies a reviewer's verdict.
//
// The Reviewer reads pending candidates from the catalog, hands each image
// to a Presenter (the terminal prompt in production) and then favorites,
// deletes or rejects according to the returned Decision. Records whose
// local file disappeared since the scan are dropped without prompting.
package review
