package agents

import (
	"context"
	"strings"

	"github.com/dshills/quorum/internal/diffparse"
	"github.com/dshills/quorum/internal/redact"
	"github.com/dshills/quorum/internal/review"
)

// SecretsAnalyzerName is the agent name on secrets findings.
const SecretsAnalyzerName = "Secrets Scanner"

var secretIssues = map[redact.Kind]string{
	redact.KindAPIKey:     "Potential API key hardcoded",
	redact.KindPassword:   "Potential password hardcoded",
	redact.KindToken:      "Potential token hardcoded",
	redact.KindAWSKey:     "Potential AWS access key",
	redact.KindPrivateKey: "Private key detected",
	redact.KindGeneric:    "Potential secret hardcoded",
}

// SecretsAnalyzer flags hardcoded credentials on added lines. It runs
// locally and never fails.
type SecretsAnalyzer struct{}

func (SecretsAnalyzer) Name() string { return SecretsAnalyzerName }

func (SecretsAnalyzer) Analyze(_ context.Context, in review.AnalyzeInput) ([]review.Finding, error) {
	var findings []review.Finding
	for _, l := range diffparse.ExtractChangedLines(in.Diff, 0) {
		if l.Kind != diffparse.Added {
			continue
		}
		kind, ok := redact.Detect(l.Text)
		if !ok {
			continue
		}

		severity := review.SeverityHigh
		if kind == redact.KindPrivateKey || kind == redact.KindAWSKey {
			severity = review.SeverityCritical
		}
		findings = append(findings, review.Finding{
			Agent:       SecretsAnalyzerName,
			File:        in.FilePath,
			Line:        review.LineRef(l.Number),
			Severity:    severity,
			Category:    review.CategorySecurity,
			Issue:       secretIssues[kind],
			Suggestion:  "Remove the secret from source, load it from the environment or a secrets manager, and rotate the exposed value.",
			CodeSnippet: strings.TrimSpace(redact.Secrets(l.Text)),
			Confidence:  0.9,
		})
	}
	return findings, nil
}
