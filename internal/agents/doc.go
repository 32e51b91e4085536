// Package agents provides the analyzers quorum ships with.
//
// Four LLM-backed personas (security, performance, code quality, and logic)
// each send a file's diff to a providers.Completer with their own system
// prompt and turn the free-text answer into findings. A fifth, local analyzer
// scans added lines for hardcoded secrets without calling any model.
//
// Diffs are secret-redacted before they leave the process and completions
// are memoized in the on-disk cache.
package agents
