package dispatch

import (
	"errors"

	"github.com/xraph/dispatch/subscription"
)

// Sentinel errors returned by dispatch operations.
var (
	// ErrNoStore is returned when a Notifier is created without a store.
	ErrNoStore = errors.New("dispatch: store is required")

	// ErrTenantRequired is returned when Notify is called without a tenant.
	ErrTenantRequired = errors.New("dispatch: tenant ID is required")

	// ErrEventTypeRequired is returned when Notify is called with an event
	// that has no type.
	ErrEventTypeRequired = errors.New("dispatch: event type is required")

	// ErrSubscriptionNotFound is returned when a mutating administrative
	// operation targets a subscription that does not exist for the tenant.
	ErrSubscriptionNotFound = subscription.ErrNotFound
)
