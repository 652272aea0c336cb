package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/internal/entity"
	"github.com/xraph/dispatch/subscription"
)

// filterModel is the BSON representation of a subscription filter.
type filterModel struct {
	Expression string `bson:"expression"`
	Format     string `bson:"format"`
}

// subscriptionModel is the BSON representation stored in MongoDB.
type subscriptionModel struct {
	ID             string            `bson:"_id"`
	TenantID       string            `bson:"tenant_id"`
	Name           string            `bson:"name"`
	EventTypes     []string          `bson:"event_types"`
	DestinationURL string            `bson:"destination_url"`
	Secret         string            `bson:"secret"`
	Headers        map[string]string `bson:"headers,omitempty"`
	Filters        []filterModel     `bson:"filters,omitempty"`
	RetryCount     int               `bson:"retry_count"`
	RateLimit      int               `bson:"rate_limit"`
	Status         string            `bson:"status"`
	LastStatusTime time.Time         `bson:"last_status_time"`
	Metadata       map[string]string `bson:"metadata,omitempty"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	filters := make([]filterModel, 0, len(sub.Filters))
	for _, f := range sub.Filters {
		filters = append(filters, filterModel{Expression: f.Expression, Format: f.Format})
	}

	return &subscriptionModel{
		ID:             sub.ID.String(),
		TenantID:       sub.TenantID,
		Name:           sub.Name,
		EventTypes:     sub.EventTypes,
		DestinationURL: sub.DestinationURL,
		Secret:         sub.Secret,
		Headers:        sub.Headers,
		Filters:        filters,
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

	filters := make([]subscription.Filter, 0, len(m.Filters))
	for _, f := range m.Filters {
		filters = append(filters, subscription.Filter{Expression: f.Expression, Format: f.Format})
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
		Filters:        filters,
		RetryCount:     m.RetryCount,
		RateLimit:      m.RateLimit,
		Status:         subscription.Status(m.Status),
		LastStatusTime: m.LastStatusTime,
		Metadata:       m.Metadata,
	}, nil
}
