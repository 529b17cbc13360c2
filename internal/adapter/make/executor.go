// Package make implements a webhook.Executor for Make (formerly Integromat)
// scenario webhooks.
package make

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

// Executor posts execution payloads to Make webhook URLs.
type Executor struct {
	httpClient *http.Client
}

// NewExecutor creates a Make executor. A nil client falls back to
// http.DefaultClient; timeouts are driven by the call context.
func NewExecutor(client *http.Client) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{httpClient: client}
}

func (e *Executor) Provider() automation.Provider { return automation.ProviderMake }

// Execute POSTs the payload as JSON and returns the decoded response.
// Make webhooks often answer a bare "Accepted" body; non-JSON success
// responses are wrapped instead of rejected.
func (e *Executor) Execute(ctx context.Context, url string, payload map[string]any) (map[string]any, error) {
	if url == "" {
		return nil, webhook.ErrNoEndpoint
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("make marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("make request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req) //nolint:gosec // webhook URL from trusted catalog config
	if err != nil {
		return nil, fmt.Errorf("make send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("make read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("make webhook %d: %s", resp.StatusCode, string(respBody))
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return map[string]any{"raw": string(respBody)}, nil
	}
	return data, nil
}

// maxResponseBytes caps how much of a webhook response is buffered.
const maxResponseBytes = 1 << 20
