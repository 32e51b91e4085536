// Package config loads and merges quorum configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (QUORUM_PROVIDER, QUORUM_FAIL_ON, GITHUB_TOKEN, etc.)
//  3. Config file ($XDG_CONFIG_HOME/quorum/config.toml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [SetField] to update a single
// dotted key such as "server.port".
package config
