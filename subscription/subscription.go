// Package subscription defines tenant-owned webhook subscriptions and their
// lifecycle management.
package subscription

import (
	"errors"
	"time"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/internal/entity"
)

// ErrNotFound is returned when a mutating operation targets a subscription
// that does not exist for the tenant. Read operations report absence as a
// nil subscription instead.
var ErrNotFound = errors.New("dispatch: subscription not found")

// Status is the lifecycle state of a subscription.
type Status string

const (
	// StatusNone is the initial state of a subscription created inactive.
	// It is never reached again after the first activation.
	StatusNone Status = "none"

	// StatusActive indicates the subscription receives deliveries.
	StatusActive Status = "active"

	// StatusSuspended indicates the subscription is administratively paused.
	StatusSuspended Status = "suspended"
)

// Subscription represents a tenant's registration of an HTTP endpoint to
// receive events of one or more types.
type Subscription struct {
	entity.Entity

	// ID is the unique TypeID for this subscription.
	ID id.ID `json:"id"`

	// TenantID identifies the tenant that owns this subscription.
	TenantID string `json:"tenant_id"`

	// Name is a human-readable name for this subscription.
	Name string `json:"name"`

	// EventTypes are the event type patterns this subscription declares.
	// Exact names ("order.created") and glob patterns ("order.*", "*")
	// are both accepted. Never empty.
	EventTypes []string `json:"event_types"`

	// DestinationURL is the absolute URL deliveries are POSTed to.
	DestinationURL string `json:"destination_url"`

	// Secret is the HMAC signing secret. Empty means deliveries are unsigned.
	// Never serialized.
	Secret string `json:"-"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// Filters are evaluated against each event instance beyond the event
	// type match. Empty means no additional filtering.
	Filters []Filter `json:"filters,omitempty"`

	// RetryCount is the number of additional delivery attempts after the
	// first. Total attempts per event are RetryCount+1.
	RetryCount int `json:"retry_count"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// LastStatusTime is when Status last changed.
	LastStatusTime time.Time `json:"last_status_time"`

	// Metadata holds user-defined key-value pairs, opaque to the core.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsActive reports whether the subscription currently receives deliveries.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Transition moves the subscription to the given status, updating
// LastStatusTime. Returns false without mutation when the subscription is
// already in that status (re-entrant transitions are no-ops).
//
// Reachable states through mutation are only Active and Suspended; None is
// the initial state and is never re-entered.
func (s *Subscription) Transition(to Status) bool {
	if s.Status == to {
		return false
	}
	s.Status = to
	s.LastStatusTime = time.Now().UTC()
	return true
}

// SubscribesTo reports whether the subscription declares an event type
// pattern matching the given event type.
func (s *Subscription) SubscribesTo(eventType string) bool {
	for _, pattern := range s.EventTypes {
		if MatchType(pattern, eventType) {
			return true
		}
	}
	return false
}
