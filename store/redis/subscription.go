package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/internal/entity"
	"github.com/xraph/dispatch/subscription"
)

// subscriptionModel is the JSON representation stored in Redis.
type subscriptionModel struct {
	ID             string              `json:"id"`
	TenantID       string              `json:"tenant_id"`
	Name           string              `json:"name"`
	EventTypes     []string            `json:"event_types"`
	DestinationURL string              `json:"destination_url"`
	Secret         string              `json:"secret"`
	Headers        map[string]string   `json:"headers,omitempty"`
	Filters        []subscription.Filter `json:"filters,omitempty"`
	RetryCount     int                 `json:"retry_count"`
	RateLimit      int                 `json:"rate_limit"`
	Status         string              `json:"status"`
	LastStatusTime time.Time           `json:"last_status_time"`
	Metadata       map[string]string   `json:"metadata,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:             sub.ID.String(),
		TenantID:       sub.TenantID,
		Name:           sub.Name,
		EventTypes:     sub.EventTypes,
		DestinationURL: sub.DestinationURL,
		Secret:         sub.Secret,
		Headers:        sub.Headers,
		Filters:        sub.Filters,
		RetryCount:     sub.RetryCount,
		RateLimit:      sub.RateLimit,
		Status:         string(sub.Status),
		LastStatusTime: sub.LastStatusTime,
		Metadata:       sub.Metadata,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", m.ID, err)
	}
	return &subscription.Subscription{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             subID,
		TenantID:       m.TenantID,
		Name:           m.Name,
		EventTypes:     m.EventTypes,
		DestinationURL: m.DestinationURL,
		Secret:         m.Secret,
		Headers:        m.Headers,
		Filters:        m.Filters,
		RetryCount:     m.RetryCount,
		RateLimit:      m.RateLimit,
		Status:         subscription.Status(m.Status),
		LastStatusTime: m.LastStatusTime,
		Metadata:       m.Metadata,
	}, nil
}

// Create persists a new subscription and returns its ID.
func (s *Store) Create(ctx context.Context, tenantID string, sub *subscription.Subscription) (id.ID, error) {
	if sub.ID.IsNil() {
		sub.ID = id.NewSubscriptionID()
	}
	sub.TenantID = tenantID

	m := toSubscriptionModel(sub)
	key := entityKey(prefixSub, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return id.Nil, fmt.Errorf("dispatch/redis: create subscription: %w", err)
	}

	err := s.rdb.ZAdd(ctx, tenantIndexKey(tenantID), goredis.Z{
		Score:  scoreFromTime(m.CreatedAt),
		Member: m.ID,
	}).Err()
	if err != nil {
		return id.Nil, fmt.Errorf("dispatch/redis: create subscription index: %w", err)
	}
	return sub.ID, nil
}

// GetByID returns a subscription by ID, or (nil, nil) when absent for the
// tenant.
func (s *Store) GetByID(ctx context.Context, tenantID string, subID id.ID) (*subscription.Subscription, error) {
	var m subscriptionModel
	if err := s.getEntity(ctx, entityKey(prefixSub, subID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch/redis: get subscription: %w", err)
	}
	if m.TenantID != tenantID {
		return nil, nil
	}
	return fromSubscriptionModel(&m)
}

// GetByEventType returns the tenant's subscriptions matching the event
// type, in creation order.
func (s *Store) GetByEventType(ctx context.Context, tenantID, eventType string, activeOnly bool) ([]*subscription.Subscription, error) {
	ids, err := s.rdb.ZRange(ctx, tenantIndexKey(tenantID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("dispatch/redis: resolve subscriptions: %w", err)
	}

	var result []*subscription.Subscription
	for _, entryID := range ids {
		var m subscriptionModel
		if err := s.getEntity(ctx, entityKey(prefixSub, entryID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, err
		}
		if activeOnly && subscription.Status(m.Status) != subscription.StatusActive {
			continue
		}

		sub, err := fromSubscriptionModel(&m)
		if err != nil {
			return nil, err
		}
		if !sub.SubscribesTo(eventType) {
			continue
		}
		result = append(result, sub)
	}
	return result, nil
}

// Update persists changes to an existing subscription.
func (s *Store) Update(ctx context.Context, tenantID string, sub *subscription.Subscription) (bool, error) {
	key := entityKey(prefixSub, sub.ID.String())

	// Verify existence and tenant ownership.
	var existing subscriptionModel
	if err := s.getEntity(ctx, key, &existing); err != nil {
		if isRedisNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("dispatch/redis: update subscription get: %w", err)
	}
	if existing.TenantID != tenantID {
		return false, nil
	}

	m := toSubscriptionModel(sub)
	m.TenantID = tenantID
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, m); err != nil {
		return false, fmt.Errorf("dispatch/redis: update subscription: %w", err)
	}
	return true, nil
}

// Delete removes a subscription.
func (s *Store) Delete(ctx context.Context, tenantID string, subID id.ID) (bool, error) {
	key := entityKey(prefixSub, subID.String())

	var m subscriptionModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isRedisNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("dispatch/redis: delete subscription get: %w", err)
	}
	if m.TenantID != tenantID {
		return false, nil
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, tenantIndexKey(tenantID), m.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("dispatch/redis: delete subscription: %w", err)
	}
	return true, nil
}

// GetPage returns one page of the tenant's subscriptions in creation order.
func (s *Store) GetPage(ctx context.Context, tenantID string, q subscription.PageQuery) ([]*subscription.Subscription, int, error) {
	indexKey := tenantIndexKey(tenantID)

	total, err := s.rdb.ZCard(ctx, indexKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/redis: count subscriptions: %w", err)
	}

	offset := q.Offset()
	if int64(offset) >= total {
		return nil, int(total), nil
	}

	stop := int64(-1)
	if q.PageSize > 0 {
		stop = int64(offset + q.PageSize - 1)
	}

	ids, err := s.rdb.ZRange(ctx, indexKey, int64(offset), stop).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/redis: page subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, 0, len(ids))
	for _, entryID := range ids {
		var m subscriptionModel
		if err := s.getEntity(ctx, entityKey(prefixSub, entryID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, 0, err
		}
		sub, err := fromSubscriptionModel(&m)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, sub)
	}
	return result, int(total), nil
}
