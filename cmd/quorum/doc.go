// Quorum is a multi-analyzer code review tool backed by LLM providers.
//
// Each changed file is sent to a panel of review analyzers (security,
// performance, quality, logic, and a local secrets scanner). Their findings
// are merged, near-duplicates collapsed, and the result ranked by severity
// and confidence, with deterministic exit codes for CI gating and git hooks.
//
// Usage:
//
//	quorum review unstaged                    # review working tree changes
//	quorum review staged                      # review staged changes
//	quorum review commit <sha>                # review a specific commit
//	quorum review range origin/main..HEAD     # review a revision range
//	quorum review diff changes.patch          # review a unified diff file or stdin
//	quorum review pr owner/repo 42 --post     # review a pull request and post findings
//	quorum serve                              # run the HTTP review API
package main
