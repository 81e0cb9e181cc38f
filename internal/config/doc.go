// Package config loads, normalizes, and validates srcset configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SRCSET_REDIS_PASSWORD. The Config type centralizes every knob the CLI
// needs, from source and cache roots to per-profile breakpoint lists.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
