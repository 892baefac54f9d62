package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	backendID string
	model     string
	client    *genai.Client
}

// NewGeminiClient creates a new Gemini client for one backend.
func NewGeminiClient(ctx context.Context, cfg BackendConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		backendID: cfg.ID,
		model:     cfg.Model,
		client:    client,
	}, nil
}

// Generate produces text for the request via the Gemini API.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if c.model == "" {
		return nil, newProviderError(c.backendID, false, fmt.Errorf("no model configured"))
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, newProviderError(c.backendID, geminiRetriable(err), fmt.Errorf("failed to generate content: %w", err))
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, newProviderError(c.backendID, false, err)
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return &Response{Text: text, TokensUsed: tokens}, nil
}

// Model returns the provider-side model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiRetriable classifies a Gemini API failure as transient or not.
func geminiRetriable(err error) bool {
	if retriableCtxErr(err) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retriableStatus(apiErr.Code)
	}
	return false
}

// extractTextFromResponse extracts text from a Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
