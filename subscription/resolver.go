package subscription

import (
	"context"
	"fmt"
)

// Resolver returns the candidate subscriber set for an event.
// It is a pure read path over the Store with no side effects; the returned
// sequence is the universe handed to the filtering stage.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the tenant's subscriptions matching the event type, in
// creation order. When activeOnly is true only Active subscriptions are
// returned.
func (r *Resolver) Resolve(ctx context.Context, tenantID, eventType string, activeOnly bool) ([]*Subscription, error) {
	subs, err := r.store.GetByEventType(ctx, tenantID, eventType, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("dispatch: resolve subscriptions: %w", err)
	}
	return subs, nil
}
