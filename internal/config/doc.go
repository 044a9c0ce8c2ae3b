// Package config loads, normalizes, and validates the aotw TOML
// configuration, applying environment-variable fallbacks for credentials so
// deployments can keep secrets out of the file.
package config
