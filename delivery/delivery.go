// Package delivery performs HTTP webhook delivery with retry and bounded
// concurrent fan-out.
package delivery

import (
	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/subscription"
)

// Request is one composed, signed webhook delivery to one subscription.
type Request struct {
	// Subscription is the delivery target.
	Subscription *subscription.Subscription

	// DeliveryID identifies this delivery, sent as a metadata header so
	// receivers can dedupe across retry attempts. Assigned by the executor
	// when nil.
	DeliveryID id.ID

	// EventID identifies the event being delivered.
	EventID id.ID

	// EventType is the event type name, sent as a metadata header.
	EventType string

	// Body is the composed payload. The signature, when present, was
	// computed over exactly these bytes.
	Body []byte

	// Signature is the "v1=<hex>" payload signature. Empty means the
	// subscription has no secret and the delivery goes unsigned.
	Signature string
}

// Result is the terminal outcome of delivering one event to one
// subscription. It is transient: produced by the executor, merged into the
// notification result, never persisted.
type Result struct {
	// DeliveryID identifies the delivery across its retry attempts.
	DeliveryID id.ID `json:"delivery_id"`

	// SubscriptionID identifies the target subscription.
	SubscriptionID id.ID `json:"subscription_id"`

	// Success is true when an attempt received a 2xx response.
	Success bool `json:"success"`

	// Cancelled is true when the delivery was aborted by caller
	// cancellation mid-flight or mid-backoff, as opposed to failing.
	Cancelled bool `json:"cancelled,omitempty"`

	// Attempts is the number of HTTP attempts made (≤ RetryCount+1).
	Attempts int `json:"attempts"`

	// StatusCode is the HTTP status of the last response received, 0 when
	// every attempt failed at the transport level.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes the terminal failure, empty on success.
	Error string `json:"error,omitempty"`

	// Response is the last response body received (capped at 1KB).
	Response string `json:"response,omitempty"`

	// LatencyMs is the latency in milliseconds of the last attempt.
	LatencyMs int `json:"latency_ms,omitempty"`
}
