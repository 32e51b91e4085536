// Package cache memoizes LLM completions on disk.
//
// A Key names the provider, model, persona, system prompt, and the
// already-redacted user prompt; its SHA-256 is the entry's file name. Entries
// older than the TTL are treated as misses and can be removed with Prune.
package cache
