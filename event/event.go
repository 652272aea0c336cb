// Package event defines the inbound domain event submitted for notification.
package event

import (
	"time"

	"github.com/xraph/dispatch/id"
)

// Info represents a domain event submitted for webhook notification.
// It is transient: created by the producer, consumed within a single
// Notify call, and never persisted by the core.
type Info struct {
	// ID is the unique TypeID for this event.
	ID id.ID `json:"id"`

	// Type is the dot-separated event type name (e.g. "order.created").
	Type string `json:"type"`

	// TenantID identifies the tenant that produced this event.
	TenantID string `json:"tenant_id"`

	// Timestamp is when the event occurred. Zero means "now" at notify time.
	Timestamp time.Time `json:"timestamp"`

	// Data is the opaque structured payload of the event.
	Data map[string]any `json:"data"`
}

// OccurredAt returns the event timestamp, defaulting to now (UTC) when unset.
func (e *Info) OccurredAt() time.Time {
	if e.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return e.Timestamp
}
