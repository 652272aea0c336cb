package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/internal/entity"
	"github.com/xraph/dispatch/signature"
)

// Manager orchestrates the administrative lifecycle of subscriptions.
//
// All operations are tenant-scoped. Mutating operations additionally take
// the acting user ID, which is recorded for audit purposes and never
// interpreted. Read operations report absence as a nil subscription;
// mutating operations targeting a missing subscription fail with
// ErrNotFound, so "nothing was there" is never conflated with "nothing
// happened".
type Manager struct {
	store  Store
	logger *slog.Logger
}

// NewManager creates a subscription lifecycle manager.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// Add validates the input, constructs a subscription and persists it,
// returning the new subscription ID.
func (m *Manager) Add(ctx context.Context, tenantID, userID string, in Input) (id.ID, error) {
	if tenantID == "" {
		return id.Nil, &ValidationError{Field: "tenant_id", Message: "required"}
	}
	if len(in.EventTypes) == 0 {
		return id.Nil, &ValidationError{Field: "event_types", Message: "at least one event type required"}
	}
	u, err := url.Parse(in.DestinationURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return id.Nil, &ValidationError{Field: "destination_url", Message: "absolute URL required"}
	}
	if in.RetryCount < 0 {
		return id.Nil, &ValidationError{Field: "retry_count", Message: "must be non-negative"}
	}

	sub := newFromInput(tenantID, in)

	subID, err := m.store.Create(ctx, tenantID, sub)
	if err != nil {
		return id.Nil, fmt.Errorf("dispatch: create subscription: %w", err)
	}

	m.logger.InfoContext(ctx, "subscription added",
		"tenant_id", tenantID, "user_id", userID,
		"subscription_id", subID, "event_types", in.EventTypes)

	return subID, nil
}

// newFromInput maps an administrative Input into a persistable Subscription.
func newFromInput(tenantID string, in Input) *Subscription {
	status := StatusNone
	sub := &Subscription{
		Entity:         entity.New(),
		ID:             id.NewSubscriptionID(),
		TenantID:       tenantID,
		Name:           in.Name,
		EventTypes:     in.EventTypes,
		DestinationURL: in.DestinationURL,
		Secret:         in.Secret,
		Headers:        in.Headers,
		Filters:        in.Filters,
		RetryCount:     in.RetryCount,
		RateLimit:      in.RateLimit,
		Status:         status,
		Metadata:       in.Metadata,
	}
	if in.Active {
		sub.Transition(StatusActive)
	}
	return sub
}

// Get returns a subscription by ID, or nil when it does not exist for the
// tenant. Absence is a normal outcome on the read path, not an error.
func (m *Manager) Get(ctx context.Context, tenantID string, subID id.ID) (*Subscription, error) {
	return m.store.GetByID(ctx, tenantID, subID)
}

// DefaultPageSize is used when a page query does not specify a size.
const DefaultPageSize = 10

// GetPage returns one page of the tenant's subscriptions in creation order.
// A PageSize of 0 or less falls back to DefaultPageSize, so the returned
// page descriptor is always consistent with the items.
func (m *Manager) GetPage(ctx context.Context, tenantID string, q PageQuery) (*Page, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}

	items, total, err := m.store.GetPage(ctx, tenantID, q)
	if err != nil {
		return nil, fmt.Errorf("dispatch: page subscriptions: %w", err)
	}

	return &Page{
		Subscriptions: items,
		TotalCount:    total,
		TotalPages:    (total + q.PageSize - 1) / q.PageSize,
	}, nil
}

// Enable activates a subscription. Returns false without mutation when the
// subscription is already Active; fails with ErrNotFound when it does not
// exist for the tenant.
func (m *Manager) Enable(ctx context.Context, tenantID, userID string, subID id.ID) (bool, error) {
	return m.setStatus(ctx, tenantID, userID, subID, StatusActive)
}

// Disable suspends a subscription. Returns false without mutation when the
// subscription is already Suspended; fails with ErrNotFound when it does
// not exist for the tenant.
func (m *Manager) Disable(ctx context.Context, tenantID, userID string, subID id.ID) (bool, error) {
	return m.setStatus(ctx, tenantID, userID, subID, StatusSuspended)
}

func (m *Manager) setStatus(ctx context.Context, tenantID, userID string, subID id.ID, to Status) (bool, error) {
	sub, err := m.store.GetByID(ctx, tenantID, subID)
	if err != nil {
		return false, fmt.Errorf("dispatch: get subscription: %w", err)
	}
	if sub == nil {
		return false, fmt.Errorf("%w: %s", ErrNotFound, subID)
	}

	if !sub.Transition(to) {
		return false, nil
	}

	if _, err := m.store.Update(ctx, tenantID, sub); err != nil {
		return false, fmt.Errorf("dispatch: update subscription: %w", err)
	}

	m.logger.InfoContext(ctx, "subscription status changed",
		"tenant_id", tenantID, "user_id", userID,
		"subscription_id", subID, "status", to)

	return true, nil
}

// Remove deletes a subscription. Unlike Get, removal of a missing
// subscription fails with ErrNotFound: administrative intent requires
// confirmation that something was actually removed.
func (m *Manager) Remove(ctx context.Context, tenantID, userID string, subID id.ID) (bool, error) {
	deleted, err := m.store.Delete(ctx, tenantID, subID)
	if err != nil {
		return false, fmt.Errorf("dispatch: delete subscription: %w", err)
	}
	if !deleted {
		return false, fmt.Errorf("%w: %s", ErrNotFound, subID)
	}

	m.logger.InfoContext(ctx, "subscription removed",
		"tenant_id", tenantID, "user_id", userID, "subscription_id", subID)

	return true, nil
}

// RotateSecret generates a new signing secret for a subscription and
// returns it. Deliveries signed after rotation use the new secret.
func (m *Manager) RotateSecret(ctx context.Context, tenantID, userID string, subID id.ID) (string, error) {
	sub, err := m.store.GetByID(ctx, tenantID, subID)
	if err != nil {
		return "", fmt.Errorf("dispatch: get subscription: %w", err)
	}
	if sub == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, subID)
	}

	sub.Secret = signature.GenerateSecret()
	if _, err := m.store.Update(ctx, tenantID, sub); err != nil {
		return "", fmt.Errorf("dispatch: update subscription: %w", err)
	}

	m.logger.InfoContext(ctx, "subscription secret rotated",
		"tenant_id", tenantID, "user_id", userID, "subscription_id", subID)

	return sub.Secret, nil
}

// ValidationError indicates invalid administrative input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "subscription validation: " + e.Field + ": " + e.Message
}
