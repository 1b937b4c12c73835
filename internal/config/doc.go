// Package config loads, normalizes, and validates daemonizer configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts) into
// absolute paths, reads TOML files, and honours environment fallbacks such as
// DAEMONIZER_LOG_LEVEL. Paths are made absolute at load time so the daemon's
// change of working directory never changes what a relative path refers to.
package config
