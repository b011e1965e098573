// Package notify delivers run summaries to an optional webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RunSummary is the payload posted after each run.
type RunSummary struct {
	RunID     string  `json:"run_id"`
	Status    string  `json:"status"` // success, partial, failure
	Processed int     `json:"processed"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Duration  string  `json:"duration"`
	CostUSD   float64 `json:"cost_usd"`
}

// Notifier delivers a run summary to some channel.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary RunSummary) error
}

// WebhookNotifier posts the summary as JSON to a single URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

var _ Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier for the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyRunSummary posts the summary. Non-2xx responses are errors.
func (n *WebhookNotifier) NotifyRunSummary(ctx context.Context, summary RunSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("notify: marshal summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
