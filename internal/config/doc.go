// Package config loads, normalizes, and validates imgsauce configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SAUCENAO_APIKEY and DANBOORU_APIKEY. The Config type centralizes every knob
// the scan, review, and schedule commands need so directories, thresholds, and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
