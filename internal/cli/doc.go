// Package cli wires together the Cobra command tree for the quorum binary.
//
// It defines the root command and its subcommands (review, serve, agents,
// models, config, cache, hook, version), binds flags, loads configuration,
// builds the analyzer panel, and returns deterministic exit codes for CI
// gating.
package cli
