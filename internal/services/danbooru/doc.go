// Package danbooru is a small client for the Danbooru image board API.
//
// The scan uses it three ways: looking up a post by the MD5 of a local file,
// fetching a post's dimensions and banned-artist flag for the resolution
// guard, and adding posts to the account's favorites. Requests authenticate
// with HTTP basic auth using the account login and API key.
package danbooru
