// Package n8n implements a webhook.Executor for n8n workflow webhooks.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/neurahub/dispatch/internal/domain/automation"
	"github.com/neurahub/dispatch/internal/port/webhook"
)

// maxResponseBytes caps how much of a webhook response is buffered.
const maxResponseBytes = 1 << 20

// Executor posts execution payloads to n8n webhook nodes.
type Executor struct {
	httpClient *http.Client
}

// NewExecutor creates an n8n executor. A nil client falls back to
// http.DefaultClient; timeouts are driven by the call context.
func NewExecutor(client *http.Client) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{httpClient: client}
}

func (e *Executor) Provider() automation.Provider { return automation.ProviderN8n }

// Execute POSTs the payload as JSON and returns the decoded response.
func (e *Executor) Execute(ctx context.Context, url string, payload map[string]any) (map[string]any, error) {
	if url == "" {
		return nil, webhook.ErrNoEndpoint
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("n8n marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("n8n request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req) //nolint:gosec // webhook URL from trusted catalog config
	if err != nil {
		return nil, fmt.Errorf("n8n send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("n8n read response: %w", err)
	}

	// n8n returns 200 with the last node's output when "Respond Immediately"
	// is off, 200 with an empty body otherwise.
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("n8n webhook %d: %s", resp.StatusCode, string(respBody))
	}

	if len(respBody) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return map[string]any{"raw": string(respBody)}, nil
	}
	return data, nil
}
