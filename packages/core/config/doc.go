// Package config handles configuration loading and management for nap.
//
// It provides functionality for:
//   - Loading configuration from nap.config.json or nap.config.yaml files
//   - Default configuration values
//   - Merging file configuration with command-line overrides
package config
