package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultOpenRouterURL is the chat-completions endpoint used unless the
// backend config overrides it.
const defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient implements Client for the OpenRouter chat-completions API.
type OpenRouterClient struct {
	backendID  string
	model      string
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOpenRouterClient creates an OpenRouter client for one backend.
func NewOpenRouterClient(cfg BackendConfig) *OpenRouterClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenRouterURL
	}
	return &OpenRouterClient{
		backendID: cfg.ID,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		endpoint:  endpoint,
		// Per-call deadlines come from the request context; this is a
		// last-resort cap so a wedged connection cannot hold a worker forever.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// chatMessage is one message in a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenRouter chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate sends one chat-completions call and returns the first choice.
func (c *OpenRouterClient) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, newProviderError(c.backendID, false, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(c.backendID, false, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors and context deadlines are transient; a cancelled run is not.
		retriable := ctx.Err() == nil || retriableCtxErr(ctx.Err())
		return nil, newProviderError(c.backendID, retriable, fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, newProviderError(c.backendID, true, fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, newProviderError(c.backendID, retriableStatus(httpResp.StatusCode),
			fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, truncateBody(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, newProviderError(c.backendID, false, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return nil, newProviderError(c.backendID, retriableStatus(parsed.Error.Code),
			fmt.Errorf("provider error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return nil, newProviderError(c.backendID, false, fmt.Errorf("no choices in response"))
	}

	return &Response{
		Text:       parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}

// Model returns the provider-side model identifier.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Close is a no-op; the client holds no persistent connections of its own.
func (c *OpenRouterClient) Close() error {
	return nil
}

// truncateBody keeps error messages readable when providers return HTML pages.
func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
