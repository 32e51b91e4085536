package providers

import (
	"context"
	"fmt"
	"time"
)

// Request is one chat completion: a system prompt and a single user turn.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw text returned by an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction every review persona calls.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint (OpenAI-compatible providers and Ollama).
	BaseURL string
	Timeout time.Duration
}

const defaultMaxTokens = 4096

var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
	"groq":      "llama-3.1-70b-versatile",
	"gemini":    "gemini-2.0-flash",
	"ollama":    "llama3",
}

// Names lists the supported provider names.
func Names() []string {
	return []string{"anthropic", "openai", "groq", "gemini", "ollama"}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[canonical(provider)]
}

func canonical(provider string) string {
	switch provider {
	case "google":
		return "gemini"
	case "lmstudio":
		return "ollama"
	}
	return provider
}

// New creates a provider from settings.
func New(s Settings) (Completer, error) {
	model := s.Model
	if model == "" {
		model = DefaultModel(s.Provider)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch canonical(s.Provider) {
	case "anthropic":
		return NewAnthropic(s.APIKey, model, timeout)
	case "openai":
		return NewOpenAI(s.APIKey, model, s.BaseURL, timeout)
	case "groq":
		return NewGroq(s.APIKey, model, timeout)
	case "gemini":
		return NewGemini(s.APIKey, model, timeout)
	case "ollama":
		return NewOllama(s.BaseURL, s.APIKey, model, timeout)
	default:
		return nil, fmt.Errorf("unknown provider: %s", s.Provider)
	}
}

func missingKey(provider, envVar string) error {
	return &authError{message: fmt.Sprintf("%s API key is not configured (set %s)", provider, envVar)}
}
