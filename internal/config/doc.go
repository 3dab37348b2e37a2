// Package config loads, normalizes, and validates mineardmg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MINEARDMG_WORKERS. The Config type centralizes every knob the CLI and the
// build pipeline need, so endpoints, worker counts, codec binaries, and the
// output location are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
