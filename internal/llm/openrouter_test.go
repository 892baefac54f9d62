package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *OpenRouterClient {
	return NewOpenRouterClient(BackendConfig{
		ID:       "openai/gpt-test",
		Kind:     KindOpenRouter,
		Model:    "openai/gpt-test",
		APIKey:   "test-key",
		Endpoint: url,
	})
}

func TestOpenRouterClient_Generate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "Summary\nTailored resume text"}}],
			"usage": {"total_tokens": 321}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Generate(context.Background(), Request{Prompt: "write a resume", MaxTokens: 900})
	require.NoError(t, err)

	assert.Equal(t, "Summary\nTailored resume text", resp.Text)
	assert.Equal(t, 321, resp.TokensUsed)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestOpenRouterClient_ServerErrorIsRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "openai/gpt-test", pe.Backend)
	assert.True(t, pe.Retriable)
}

func TestOpenRouterClient_RateLimitIsRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), Request{Prompt: "p"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retriable)
}

func TestOpenRouterClient_ClientErrorIsNotRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad model id", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), Request{Prompt: "p"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Retriable)
}

func TestOpenRouterClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), Request{Prompt: "p"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Retriable)
}

func TestOpenRouterClient_TimeoutIsRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).Generate(ctx, Request{Prompt: "p"})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retriable)
	assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))
}
