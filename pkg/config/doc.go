// Package config handles configuration management for ckit.
// It supports loading configuration from multiple sources: embedded
// TOML defaults, a config file at the install root, and environment
// variables.
package config
