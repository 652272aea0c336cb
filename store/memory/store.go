// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/subscription"
	dispatchstore "github.com/xraph/dispatch/store"
)

// compile-time interface check.
var _ dispatchstore.Store = (*Store)(nil)

// ErrClosed is returned when a store operation is attempted after Close.
var ErrClosed = errors.New("dispatch/memory: store is closed")

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	subs  map[string]*subscription.Subscription // keyed by ID string
	order map[string][]string                   // tenant ID → subscription IDs in creation order

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		subs:  make(map[string]*subscription.Subscription),
		order: make(map[string][]string),
	}
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// copySub returns a shallow copy so callers can mutate without affecting
// stored state until Update.
func copySub(sub *subscription.Subscription) *subscription.Subscription {
	cp := *sub
	return &cp
}

// Create persists a new subscription and returns its ID.
func (s *Store) Create(_ context.Context, tenantID string, sub *subscription.Subscription) (id.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID.IsNil() {
		sub.ID = id.NewSubscriptionID()
	}
	sub.TenantID = tenantID

	key := sub.ID.String()
	s.subs[key] = copySub(sub)
	s.order[tenantID] = append(s.order[tenantID], key)
	return sub.ID, nil
}

// GetByID returns a subscription by ID, or (nil, nil) when absent.
func (s *Store) GetByID(_ context.Context, tenantID string, subID id.ID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[subID.String()]
	if !ok || sub.TenantID != tenantID {
		return nil, nil
	}
	return copySub(sub), nil
}

// GetByEventType returns the tenant's subscriptions matching the event
// type, in creation order.
func (s *Store) GetByEventType(_ context.Context, tenantID, eventType string, activeOnly bool) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, key := range s.order[tenantID] {
		sub, ok := s.subs[key]
		if !ok {
			continue
		}
		if activeOnly && !sub.IsActive() {
			continue
		}
		if !sub.SubscribesTo(eventType) {
			continue
		}
		result = append(result, copySub(sub))
	}
	return result, nil
}

// Update persists changes to an existing subscription.
func (s *Store) Update(_ context.Context, tenantID string, sub *subscription.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sub.ID.String()
	existing, ok := s.subs[key]
	if !ok || existing.TenantID != tenantID {
		return false, nil
	}

	sub.UpdatedAt = time.Now().UTC()
	s.subs[key] = copySub(sub)
	return true, nil
}

// Delete removes a subscription.
func (s *Store) Delete(_ context.Context, tenantID string, subID id.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subID.String()
	existing, ok := s.subs[key]
	if !ok || existing.TenantID != tenantID {
		return false, nil
	}

	delete(s.subs, key)
	order := s.order[tenantID]
	for i, k := range order {
		if k == key {
			s.order[tenantID] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return true, nil
}

// GetPage returns one page of the tenant's subscriptions in creation order.
func (s *Store) GetPage(_ context.Context, tenantID string, q subscription.PageQuery) ([]*subscription.Subscription, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.order[tenantID]
	total := len(order)

	offset := q.Offset()
	if offset >= total {
		return nil, total, nil
	}

	end := total
	if q.PageSize > 0 && offset+q.PageSize < end {
		end = offset + q.PageSize
	}

	result := make([]*subscription.Subscription, 0, end-offset)
	for _, key := range order[offset:end] {
		if sub, ok := s.subs[key]; ok {
			result = append(result, copySub(sub))
		}
	}
	return result, total, nil
}
