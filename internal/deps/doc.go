// Package deps checks that external binaries (crontab, the review browser
// launcher) are available on PATH.
package deps
