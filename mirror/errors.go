// CLAUDE:SUMMARY Sentinel errors for the mirror package.
package mirror

import "errors"

// ErrNoTarget is returned when no target URL is configured.
var ErrNoTarget = errors.New("mirror: target URL is required")

// ErrPageFetch wraps a transport failure on the page itself. Unlike asset
// failures, this one is fatal to the run.
var ErrPageFetch = errors.New("mirror: page fetch failed")

// ErrNoManifest is returned by Stats when journaling is disabled.
var ErrNoManifest = errors.New("mirror: no manifest configured")
