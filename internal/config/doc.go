// Package config loads, normalizes, and validates mochapipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files and honours
// MOCHAPIPE_* environment overrides for the host version and the session
// context. The Config type centralizes every knob the CLI and the publish
// plugins need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
