// Package config carries the small, flat set of flags the CLI layer hands
// down into the discovery engine. Nothing in here is derived — it is a pure
// record of user intent.
package config

// Config controls the runtime behavior of a discover run.
type Config struct {
	// NoBanner suppresses the startup banner.
	NoBanner bool
	// NoDNS disables the hostname resolver entirely.
	NoDNS bool
	// Redact masks MAC addresses, IPv6 suffixes, and hostnames in rendered
	// output. It never mutates a Host — redaction is a display-time concern.
	Redact bool
	// Quiet reduces visual density: at 1 or more the live progress screen
	// is not shown. Levels 1 and 2 behave the same, and the final host
	// table is printed the same way at every level.
	Quiet int
	// DisableInput stops the CLI from spawning a keyboard-stop listener,
	// for CI and daemon use.
	DisableInput bool
}
