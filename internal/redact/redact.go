package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// Kind names the class of secret a pattern detects.
type Kind string

const (
	KindAPIKey     Kind = "api_key"
	KindPassword   Kind = "password"
	KindToken      Kind = "token"
	KindAWSKey     Kind = "aws_key"
	KindPrivateKey Kind = "private_key"
	KindGeneric    Kind = "secret"
)

type secretPattern struct {
	kind Kind
	re   *regexp.Regexp
}

// secretPatterns are regex heuristics for common secret types. Order matters
// for Detect: the first matching pattern names the finding.
var secretPatterns = []secretPattern{
	// Private key blocks
	{KindPrivateKey, regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`)},
	// AWS access key IDs
	{KindAWSKey, regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	// AWS secret access keys
	{KindAWSKey, regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	// Generic API keys (long strings after common key patterns)
	{KindAPIKey, regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	// Anthropic API keys
	{KindAPIKey, regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	// OpenAI API keys
	{KindAPIKey, regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	// Groq API keys
	{KindAPIKey, regexp.MustCompile(`gsk_[A-Za-z0-9]{20,}`)},
	// Passwords in assignments
	{KindPassword, regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']([^"']{8,})["']`)},
	// Secrets/tokens/credentials in assignments
	{KindToken, regexp.MustCompile(`(?i)(secret|token|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	// Bearer tokens
	{KindToken, regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	// JWTs (three base64 segments separated by dots)
	{KindToken, regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	// GitHub tokens
	{KindToken, regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	// Slack tokens
	{KindToken, regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	{KindGeneric, regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, p := range secretPatterns {
		result = p.re.ReplaceAllLiteralString(result, placeholder)
	}
	return result
}

// Detect reports the kind of the first secret pattern found in line, and
// whether any matched.
func Detect(line string) (Kind, bool) {
	for _, p := range secretPatterns {
		if p.re.MatchString(line) {
			return p.kind, true
		}
	}
	return "", false
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// Also try matching just the filename for patterns like "**/.env"
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			matched, err = filepath.Match(cleanPattern, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Content redacts secrets from content and replaces it entirely when path
// matches one of the redaction path patterns.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)\n"
	}
	return Secrets(content)
}
