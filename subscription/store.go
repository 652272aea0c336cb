package subscription

import (
	"context"

	"github.com/xraph/dispatch/id"
)

// Store defines the persistence contract for webhook subscriptions.
// Every operation is tenant-scoped: implementations must never return or
// mutate a subscription belonging to another tenant.
type Store interface {
	// Create persists a new subscription and returns its ID.
	Create(ctx context.Context, tenantID string, sub *Subscription) (id.ID, error)

	// GetByID returns a subscription by ID, or (nil, nil) when it does not
	// exist for the tenant. Absence is not an error on the read path.
	GetByID(ctx context.Context, tenantID string, subID id.ID) (*Subscription, error)

	// GetByEventType returns the tenant's subscriptions declaring a pattern
	// that matches the event type, in creation order. When activeOnly is
	// true only Active subscriptions are returned.
	// This is the hot path, called on every Notify.
	GetByEventType(ctx context.Context, tenantID, eventType string, activeOnly bool) ([]*Subscription, error)

	// Update persists changes to an existing subscription. Returns true iff
	// a record was modified.
	Update(ctx context.Context, tenantID string, sub *Subscription) (bool, error)

	// Delete removes a subscription. Returns true iff a record was deleted.
	Delete(ctx context.Context, tenantID string, subID id.ID) (bool, error)

	// GetPage returns one page of the tenant's subscriptions in creation
	// order, plus the tenant's total subscription count.
	GetPage(ctx context.Context, tenantID string, q PageQuery) ([]*Subscription, int, error)
}
