package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/subscription"
)

// Create persists a new subscription and returns its ID.
func (s *Store) Create(ctx context.Context, tenantID string, sub *subscription.Subscription) (id.ID, error) {
	if sub.ID.IsNil() {
		sub.ID = id.NewSubscriptionID()
	}
	sub.TenantID = tenantID

	m := toSubscriptionModel(sub)
	if _, err := s.subscriptions().InsertOne(ctx, m); err != nil {
		return id.Nil, fmt.Errorf("dispatch/mongo: create subscription: %w", err)
	}
	return sub.ID, nil
}

// GetByID returns a subscription by ID, or (nil, nil) when absent for the
// tenant. The filter is tenant-scoped so one tenant can never read
// another's subscription, even with a guessed ID.
func (s *Store) GetByID(ctx context.Context, tenantID string, subID id.ID) (*subscription.Subscription, error) {
	var m subscriptionModel

	err := s.subscriptions().
		FindOne(ctx, bson.M{"_id": subID.String(), "tenant_id": tenantID}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch/mongo: get subscription: %w", err)
	}

	return fromSubscriptionModel(&m)
}

// GetByEventType returns the tenant's subscriptions matching the event
// type, in creation order. Glob patterns are matched in process; the query
// narrows by tenant and status only.
func (s *Store) GetByEventType(ctx context.Context, tenantID, eventType string, activeOnly bool) ([]*subscription.Subscription, error) {
	filter := bson.M{"tenant_id": tenantID}
	if activeOnly {
		filter["status"] = string(subscription.StatusActive)
	}

	cursor, err := s.subscriptions().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("dispatch/mongo: resolve subscriptions: %w", err)
	}

	var models []subscriptionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("dispatch/mongo: decode subscriptions: %w", err)
	}

	var result []*subscription.Subscription
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
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
	m := toSubscriptionModel(sub)
	m.TenantID = tenantID
	m.UpdatedAt = now()

	res, err := s.subscriptions().ReplaceOne(ctx,
		bson.M{"_id": m.ID, "tenant_id": tenantID}, m)
	if err != nil {
		return false, fmt.Errorf("dispatch/mongo: update subscription: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// Delete removes a subscription.
func (s *Store) Delete(ctx context.Context, tenantID string, subID id.ID) (bool, error) {
	res, err := s.subscriptions().DeleteOne(ctx,
		bson.M{"_id": subID.String(), "tenant_id": tenantID})
	if err != nil {
		return false, fmt.Errorf("dispatch/mongo: delete subscription: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// GetPage returns one page of the tenant's subscriptions in creation order.
func (s *Store) GetPage(ctx context.Context, tenantID string, q subscription.PageQuery) ([]*subscription.Subscription, int, error) {
	filter := bson.M{"tenant_id": tenantID}

	total, err := s.subscriptions().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/mongo: count subscriptions: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(q.Offset()))
	if q.PageSize > 0 {
		opts = opts.SetLimit(int64(q.PageSize))
	}

	cursor, err := s.subscriptions().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/mongo: page subscriptions: %w", err)
	}

	var models []subscriptionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, 0, fmt.Errorf("dispatch/mongo: decode subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, 0, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, sub)
	}
	return result, int(total), nil
}
