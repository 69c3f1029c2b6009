package triggerwatch

import (
	"context"
	"errors"
)

// ErrWebhookDelivery indicates that a webhook endpoint was unreachable or
// answered with a non-success status.
var ErrWebhookDelivery = errors.New("webhook delivery failed")

// WebhookNotifier delivers a notification payload to a trigger's endpoint.
//
// Delivery is at-least-once from the receiver's perspective: the pipeline may
// redeliver a payload when a partially processed block is retried, so
// receivers must deduplicate by transaction hash.
type WebhookNotifier interface {
	// Notify posts the JSON-serialized payload to url. Every attempt resolves
	// to a terminal outcome: nil on a success response, an error (wrapping
	// ErrWebhookDelivery for endpoint-side failures) otherwise. The pipeline
	// never retries a failed delivery; it is logged and counted only.
	Notify(ctx context.Context, url string, payload NotificationPayload) error
}
