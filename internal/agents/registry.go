package agents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/review"
)

// SecretsKey selects the local secrets analyzer.
const SecretsKey = "secrets"

// Info describes an available analyzer.
type Info struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Focus    string          `json:"focus"`
	Category review.Category `json:"category"`
	LLM      bool            `json:"llm"`
}

// Catalog lists every analyzer quorum can run.
func Catalog() []Info {
	var out []Info
	for _, p := range Personas() {
		out = append(out, Info{Key: p.Key, Name: p.Name, Focus: p.Focus, Category: p.Category, LLM: true})
	}
	return append(out, secretsInfo)
}

var secretsInfo = Info{
	Key:      SecretsKey,
	Name:     SecretsAnalyzerName,
	Focus:    "Hardcoded credentials on added lines",
	Category: review.CategorySecurity,
}

// Describe reports what each running analyzer is. Personas and the secrets
// scanner map to their catalog entries; other analyzers are listed by name.
func Describe(analyzers []review.Analyzer) []Info {
	out := make([]Info, 0, len(analyzers))
	for _, a := range analyzers {
		switch v := a.(type) {
		case *LLMAnalyzer:
			p := v.Persona()
			out = append(out, Info{Key: p.Key, Name: p.Name, Focus: p.Focus, Category: p.Category, LLM: true})
		case SecretsAnalyzer:
			out = append(out, secretsInfo)
		default:
			out = append(out, Info{Key: strings.ToLower(a.Name()), Name: a.Name()})
		}
	}
	return out
}

// DefaultKeys returns the analyzers enabled when none are configured.
func DefaultKeys() []string {
	keys := make([]string, 0, 5)
	for _, info := range Catalog() {
		keys = append(keys, info.Key)
	}
	return keys
}

// ErrNoCompleter is returned when an LLM persona is requested without a provider.
var ErrNoCompleter = errors.New("LLM analyzers need a provider")

// Build instantiates analyzers by key in the order given. Duplicate keys are
// ignored. completer may be nil when only local analyzers are selected.
func Build(keys []string, completer providers.Completer, opts LLMOptions) ([]review.Analyzer, error) {
	if len(keys) == 0 {
		keys = DefaultKeys()
	}

	personas := make(map[string]Persona)
	for _, p := range Personas() {
		personas[p.Key] = p
	}

	seen := make(map[string]bool)
	var analyzers []review.Analyzer
	for _, raw := range keys {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if key == SecretsKey {
			analyzers = append(analyzers, SecretsAnalyzer{})
			continue
		}
		p, ok := personas[key]
		if !ok {
			return nil, fmt.Errorf("unknown analyzer %q (available: %s)", raw, strings.Join(DefaultKeys(), ", "))
		}
		if completer == nil {
			return nil, fmt.Errorf("analyzer %q: %w", key, ErrNoCompleter)
		}
		analyzers = append(analyzers, NewLLMAnalyzer(p, completer, opts))
	}
	if len(analyzers) == 0 {
		return nil, errors.New("no analyzers selected")
	}
	return analyzers, nil
}

// NeedsCompleter reports whether any key selects an LLM persona.
func NeedsCompleter(keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && k != SecretsKey {
			return true
		}
	}
	return false
}
