// Package saucenao talks to the SauceNAO reverse image search API.
//
// Requests upload a PNG thumbnail of the local file (Thumbnail) together
// with api_key, dbmask, minsim and output_type=2 (JSON). Every response
// carries the caller's remaining 30-second and 24-hour search allowance,
// which the scan feeds into the budget tracker.
//
// HTTP statuses map onto the services error markers: 403 is a credential
// failure, 429 means the daily quota is spent, 5xx responses are transient
// and other non-200 statuses are external errors.
package saucenao
