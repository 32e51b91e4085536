package review

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/quorum/internal/redact"
)

// Rules is a team policy pack. It steers the analyzer prompts and post-filters
// their findings. JSON files load too, since JSON is valid YAML.
type Rules struct {
	Focus []string `yaml:"focus,omitempty" json:"focus,omitempty"`
	// SeverityOverrides maps a category to the severity every finding in it gets.
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty" json:"severityOverrides,omitempty"`
	Required          []RequiredCheck   `yaml:"required,omitempty" json:"required,omitempty"`
	// Ignore drops findings on files matching these globs.
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	// MinConfidence drops findings the analyzers are less sure of.
	MinConfidence float64 `yaml:"minConfidence,omitempty" json:"minConfidence,omitempty"`
}

// RequiredCheck is a policy check every analyzer is asked to evaluate.
type RequiredCheck struct {
	ID   string `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

// LoadRules reads a rules file. An empty path means no rules.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and normalizes a rules pack.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	for cat, sev := range r.SeverityOverrides {
		parsed, err := ParseSeverity(sev)
		if err != nil {
			return nil, fmt.Errorf("rules: override for %q: %w", cat, err)
		}
		r.SeverityOverrides[cat] = string(parsed)
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return nil, fmt.Errorf("rules: minConfidence %v out of range [0,1]", r.MinConfidence)
	}
	return &r, nil
}

// PromptSection renders the rules as extra analyzer instructions. A nil
// receiver renders nothing.
func (r *Rules) PromptSection() string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	if len(r.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize findings in these areas.\n", strings.Join(r.Focus, ", "))
	}
	if len(r.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		for _, cat := range slices.Sorted(maps.Keys(r.SeverityOverrides)) {
			fmt.Fprintf(&b, "- %s findings should be rated as %s severity.\n", cat, r.SeverityOverrides[cat])
		}
	}
	if len(r.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range r.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}
	return b.String()
}

// Apply filters and rewrites findings per the rules. It returns a new slice
// and leaves findings untouched.
func (r *Rules) Apply(findings []Finding) []Finding {
	if r == nil {
		return findings
	}
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if len(r.Ignore) > 0 && redact.ShouldRedactPath(f.File, r.Ignore) {
			continue
		}
		if f.Confidence < r.MinConfidence {
			continue
		}
		if sev, ok := r.SeverityOverrides[string(f.Category)]; ok {
			f.Severity = Severity(sev)
		}
		out = append(out, f)
	}
	return out
}
