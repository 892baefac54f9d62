package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Registry holds the configured backends in configuration order. The order
// is load-bearing: labels, fallback candidate selection and reporting all
// follow it.
type Registry struct {
	order []string
	byID  map[string]Client
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Client)}
}

// Register adds a backend client under id. Ids must be unique.
func (r *Registry) Register(id string, client Client) error {
	if id == "" {
		return errors.New("backend id is empty")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("backend %s registered twice", id)
	}
	r.order = append(r.order, id)
	r.byID[id] = client
	return nil
}

// Get returns the client for a backend id.
func (r *Registry) Get(id string) (Client, bool) {
	client, ok := r.byID[id]
	return client, ok
}

// IDs returns the backend ids in configuration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.order)
}

// Close closes every registered client, returning the first error seen.
func (r *Registry) Close() error {
	var firstErr error
	for _, id := range r.order {
		if err := r.byID[id].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildRegistry constructs retry-wrapped clients for every backend config,
// preserving configuration order.
func BuildRegistry(ctx context.Context, configs []BackendConfig, retries int, baseDelay time.Duration) (*Registry, error) {
	registry := NewRegistry()
	for _, cfg := range configs {
		client, err := NewClient(ctx, cfg)
		if err != nil {
			registry.Close() //nolint:errcheck // best effort on construction failure
			return nil, err
		}
		if err := registry.Register(cfg.ID, WithRetry(client, cfg.ID, retries, baseDelay)); err != nil {
			registry.Close() //nolint:errcheck
			return nil, err
		}
	}
	return registry, nil
}
