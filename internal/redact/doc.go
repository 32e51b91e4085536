// Package redact finds and removes secrets in diff content.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// passwords and tokens in assignments, JWTs, private key blocks, AWS access
// key IDs and secret access keys, bearer tokens, and provider-specific tokens
// (Anthropic, OpenAI, Groq, GitHub, Slack). Secrets scrubs diffs before they
// reach an LLM provider; Detect backs the local secrets analyzer.
//
// Files whose paths match configured glob patterns have their entire content
// replaced with [REDACTED] rather than being scanned line by line.
package redact
