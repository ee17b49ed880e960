// Package config loads, validates, and normalizes photoshuttle's TOML
// configuration. Path fields are tilde-expanded and made absolute during
// Load; secrets can be overridden through PHOTOSHUTTLE_* environment
// variables.
package config
