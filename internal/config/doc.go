// Package config loads, normalizes, and validates mcapedit configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours MCAPEDIT_CONFIG and MCAPEDIT_LOG_LEVEL. The State
// type persists the last directories used for loading and saving containers,
// guarded by a file lock so concurrent invocations do not clobber it.
package config
