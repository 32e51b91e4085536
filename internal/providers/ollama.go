package providers

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements Completer for Ollama and LM Studio through their
// OpenAI-compatible endpoint.
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. host defaults to the local daemon
// and apiKey is only sent when set.
func NewOllama(host, apiKey, model string, timeout time.Duration) (*Ollama, error) {
	if host == "" {
		host = defaultOllamaURL
	}

	// Normalize URL: strip trailing /, /v1, /v1/chat/completions
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/v1/chat/completions")
	host = strings.TrimSuffix(host, "/v1")

	if timeout < 300*time.Second {
		timeout = 300 * time.Second
	}
	return &Ollama{
		apiKey:  apiKey,
		model:   model,
		baseURL: host + "/v1/chat/completions",
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req Request) (Response, error) {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return chatCompletion(ctx, o.client, o.baseURL, headers, o.model, req)
}
