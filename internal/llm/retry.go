package llm

import (
	"context"
	"errors"
	"time"
)

// retryClient wraps a Client with bounded retry and exponential backoff.
// Only failures the provider classified as retriable are retried; the run
// context aborts any sleep between attempts.
type retryClient struct {
	inner     Client
	backendID string
	retries   int
	baseDelay time.Duration
}

// WithRetry wraps client so transient failures (timeout, rate limit,
// 5xx-class) are retried up to retries additional attempts. A non-positive
// baseDelay defaults to 500ms.
func WithRetry(client Client, backendID string, retries int, baseDelay time.Duration) Client {
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &retryClient{
		inner:     client,
		backendID: backendID,
		retries:   retries,
		baseDelay: baseDelay,
	}
}

func (c *retryClient) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, newProviderError(c.backendID, retriableCtxErr(ctx.Err()), ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var pe *ProviderError
		if errors.As(err, &pe) && !pe.Retriable {
			return nil, pe
		}
		if ctx.Err() != nil && !retriableCtxErr(ctx.Err()) {
			// The whole run was cancelled; retrying would only mask that, and
			// the failure must not be classified as transient.
			return nil, &ProviderError{Backend: c.backendID, Retriable: false, Err: lastErr}
		}
	}

	return nil, newProviderError(c.backendID, true, lastErr)
}

func (c *retryClient) Model() string {
	return c.inner.Model()
}

func (c *retryClient) Close() error {
	return c.inner.Close()
}
