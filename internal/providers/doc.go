// Package providers implements the Completer interface for each supported LLM
// provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Groq (through its
// OpenAI-compatible endpoint), Google (Gemini), and Ollama / LM Studio for
// local models. API keys are passed in explicitly; nothing in this package
// reads the environment.
//
// All providers share a retry helper with exponential back-off that retries
// rate limits (429) and server errors (5xx) and never retries authentication
// failures.
//
// Use [New] to obtain a Completer from [Settings].
package providers
