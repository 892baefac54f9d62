// Package llm provides the model gateway: a uniform client abstraction over
// independently configured LLM backends, with per-call budgets, timeouts and
// bounded retry.
package llm

import (
	"context"
	"fmt"
)

// Request is a single generation call to one backend.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Response carries the generated text plus token accounting when the
// provider reports it (zero otherwise).
type Response struct {
	Text       string
	TokensUsed int
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate produces text for the request. Failures surface as *ProviderError.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Model returns the provider-side model identifier this client invokes
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// ProviderKind selects the wire protocol used to reach a backend
type ProviderKind string

// Supported provider kinds
const (
	// KindOpenRouter talks the OpenRouter chat-completions HTTP API
	KindOpenRouter ProviderKind = "openrouter"
	// KindGemini talks the Google Gemini API
	KindGemini ProviderKind = "gemini"
)

// BackendConfig describes one configured backend.
type BackendConfig struct {
	ID       string       // unique backend id within a council run
	Kind     ProviderKind // provider implementation
	Model    string       // provider-side model identifier
	APIKey   string       // provider credential
	Endpoint string       // optional API URL override (OpenRouter only)
}

// NewClient creates a provider client for the given backend configuration.
// The returned client is not retry-wrapped; see WithRetry.
func NewClient(ctx context.Context, cfg BackendConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend %s: API key is required", cfg.ID)
	}

	switch cfg.Kind {
	case KindGemini:
		return NewGeminiClient(ctx, cfg)
	case KindOpenRouter, "":
		return NewOpenRouterClient(cfg), nil
	default:
		return nil, fmt.Errorf("backend %s: unknown provider kind %q", cfg.ID, cfg.Kind)
	}
}
