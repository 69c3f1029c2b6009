// Package webhook delivers notification payloads to trigger endpoints over
// HTTP. Transport-level retries (connection failures, 5xx) are handled by the
// underlying retryable client; whatever outcome survives them is final.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/hashicorp/go-retryablehttp"
)

type notifier struct {
	httpClient *retryablehttp.Client
}

var _ triggerwatch.WebhookNotifier = (*notifier)(nil)

// NewNotifier creates a webhook notifier backed by the given retryable HTTP
// client.
func NewNotifier(httpClient *retryablehttp.Client) *notifier {
	return &notifier{
		httpClient: httpClient,
	}
}

// Notify implements the triggerwatch.WebhookNotifier interface.
//
// Any response outside the 2xx range counts as a failed delivery and wraps
// triggerwatch.ErrWebhookDelivery.
func (n *notifier) Notify(ctx context.Context, url string, payload triggerwatch.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", triggerwatch.ErrWebhookDelivery, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: endpoint answered %d", triggerwatch.ErrWebhookDelivery, res.StatusCode)
	}

	return nil
}
