// Package webhook defines the webhook executor port (interface).
package webhook

import (
	"context"
	"errors"

	"github.com/neurahub/dispatch/internal/domain/automation"
)

// ErrNoEndpoint is returned when an executor is called without a target URL.
var ErrNoEndpoint = errors.New("webhook: no endpoint configured")

// Executor performs the external call for one automation provider.
// Implementations return an error on network or protocol failure and must
// never panic past their own boundary. The context carries the call deadline.
type Executor interface {
	// Provider returns the platform this executor targets.
	Provider() automation.Provider

	// Execute POSTs the payload to url and returns the provider response.
	Execute(ctx context.Context, url string, payload map[string]any) (map[string]any, error)
}

// Registry maps providers to concrete executors. It is built once at
// composition time so no call site branches on provider strings.
type Registry map[automation.Provider]Executor

// NewRegistry builds a Registry from the given executors.
func NewRegistry(executors ...Executor) Registry {
	r := make(Registry, len(executors))
	for _, e := range executors {
		r[e.Provider()] = e
	}
	return r
}

// For returns the executor registered for the provider.
func (r Registry) For(p automation.Provider) (Executor, bool) {
	e, ok := r[p]
	return e, ok
}
