package llm

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError is the failure surfaced by a backend call. Retriable reports
// whether the gateway considers the failure transient (timeout, rate limit,
// 5xx-class); callers must treat one backend's failure as independent of its
// siblings.
type ProviderError struct {
	Backend   string
	Retriable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Backend, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError wraps err for the given backend, preserving an existing
// ProviderError's classification.
func newProviderError(backend string, retriable bool, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Backend: backend, Retriable: retriable, Err: err}
}

// retriableStatus reports whether an HTTP status code is worth retrying.
func retriableStatus(code int) bool {
	return code == 429 || code >= 500
}

// retriableCtxErr reports whether err is a per-call timeout rather than a
// cancellation of the whole run.
func retriableCtxErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
