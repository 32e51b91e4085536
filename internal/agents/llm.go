package agents

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"

	"github.com/dshills/quorum/internal/cache"
	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/redact"
	"github.com/dshills/quorum/internal/review"
)

// LLMOptions tunes how an LLM persona calls its provider.
type LLMOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Redact scrubs secrets from the diff before it is sent.
	Redact      bool
	RedactPaths []string
	Rules       *review.Rules
	// Cache memoizes completions. Nil disables memoization.
	Cache  *cache.Cache
	Logger *logging.Logger
}

// LLMAnalyzer is a review.Analyzer backed by a persona and a Completer.
type LLMAnalyzer struct {
	persona   Persona
	completer providers.Completer
	opts      LLMOptions
	logger    *logging.Logger
}

// NewLLMAnalyzer binds a persona to a provider.
func NewLLMAnalyzer(p Persona, c providers.Completer, opts LLMOptions) *LLMAnalyzer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LLMAnalyzer{persona: p, completer: c, opts: opts, logger: logger}
}

func (a *LLMAnalyzer) Name() string { return a.persona.Name }

// Persona returns the persona the analyzer speaks as.
func (a *LLMAnalyzer) Persona() Persona { return a.persona }

// Analyze asks the model about one file and parses its answer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, in review.AnalyzeInput) ([]review.Finding, error) {
	diff := in.Diff
	if a.opts.Redact {
		diff = redact.Content(diff, in.FilePath, a.opts.RedactPaths)
	}
	prompted := in
	prompted.Diff = diff

	userPrompt := a.persona.UserPrompt(prompted) + a.opts.Rules.PromptSection()

	a.logger.Info(ctx, "%s analyzing %s", a.persona.Name, in.FilePath)

	text, err := a.complete(ctx, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.persona.Name, err)
	}

	findings := ParseResponse(a.persona.Name, a.persona.Category, in.FilePath, text)
	for i := range findings {
		if findings[i].Line != nil {
			findings[i].CodeSnippet = Snippet(diff, *findings[i].Line, 2)
		}
	}

	a.logger.Info(ctx, "%s found %d issues in %s", a.persona.Name, len(findings), in.FilePath)
	return findings, nil
}

func (a *LLMAnalyzer) complete(ctx context.Context, userPrompt string) (string, error) {
	useCache := a.opts.Cache != nil && a.opts.Cache.Enabled()
	key := cache.Key{
		Provider: a.completer.Name(),
		Model:    a.opts.Model,
		Persona:  a.persona.Key,
		System:   a.persona.System,
		Prompt:   userPrompt,
	}
	if useCache {
		if cached, ok := a.opts.Cache.Get(key); ok {
			a.logger.Debug(ctx, "%s: cache hit", a.persona.Name)
			return cached, nil
		}
	}

	resp, err := a.completer.Complete(ctx, providers.Request{
		SystemPrompt: a.persona.System,
		UserPrompt:   userPrompt,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	a.logger.Debug(ctx, "%s - tokens: %d", a.persona.Name, resp.TokensUsed)

	if useCache {
		if err := a.opts.Cache.Put(key, resp.Content); err != nil {
			a.logger.Warn(ctx, "cache write failed: %v", err)
		}
	}
	return resp.Content, nil
}
