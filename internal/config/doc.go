// Package config loads, normalizes, and validates upkeep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// UPKEEP_REMOTE_BASE. The Config type centralizes every knob the CLI needs:
// log and cache locations, the sudo command used for privileged stages,
// tracked package lists, and the Docker Compose stack directory.
//
// Sudo-backed stages inherit the environment's credential cache; upkeep never
// prompts for or stores passwords.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
