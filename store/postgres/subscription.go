package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/subscription"
)

const subscriptionColumns = `id, tenant_id, name, event_types, destination_url, secret,
	headers, filters, retry_count, rate_limit, status, last_status_time,
	metadata, created_at, updated_at`

// Create persists a new subscription and returns its ID.
func (s *Store) Create(ctx context.Context, tenantID string, sub *subscription.Subscription) (id.ID, error) {
	if sub.ID.IsNil() {
		sub.ID = id.NewSubscriptionID()
	}
	sub.TenantID = tenantID

	headers, filters, metadata, err := marshalJSONColumns(sub)
	if err != nil {
		return id.Nil, err
	}

	var lastStatus *time.Time
	if !sub.LastStatusTime.IsZero() {
		lastStatus = &sub.LastStatusTime
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO dispatch_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		sub.ID.String(), tenantID, sub.Name, sub.EventTypes, sub.DestinationURL,
		sub.Secret, headers, filters, sub.RetryCount, sub.RateLimit,
		string(sub.Status), lastStatus, metadata, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return id.Nil, fmt.Errorf("dispatch/postgres: create subscription: %w", err)
	}
	return sub.ID, nil
}

// GetByID returns a subscription by ID, or (nil, nil) when absent for the
// tenant.
func (s *Store) GetByID(ctx context.Context, tenantID string, subID id.ID) (*subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM dispatch_subscriptions
		WHERE id = $1 AND tenant_id = $2`,
		subID.String(), tenantID)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch/postgres: get subscription: %w", err)
	}
	return sub, nil
}

// GetByEventType returns the tenant's subscriptions matching the event
// type, in creation order. Glob patterns are matched in process; the query
// narrows by tenant and status only.
func (s *Store) GetByEventType(ctx context.Context, tenantID, eventType string, activeOnly bool) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM dispatch_subscriptions
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if activeOnly {
		query += ` AND status = $2`
		args = append(args, string(subscription.StatusActive))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dispatch/postgres: resolve subscriptions: %w", err)
	}
	defer rows.Close()

	var result []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("dispatch/postgres: scan subscription: %w", err)
		}
		if !sub.SubscribesTo(eventType) {
			continue
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

// Update persists changes to an existing subscription.
func (s *Store) Update(ctx context.Context, tenantID string, sub *subscription.Subscription) (bool, error) {
	headers, filters, metadata, err := marshalJSONColumns(sub)
	if err != nil {
		return false, err
	}

	var lastStatus *time.Time
	if !sub.LastStatusTime.IsZero() {
		lastStatus = &sub.LastStatusTime
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE dispatch_subscriptions
		SET name = $3, event_types = $4, destination_url = $5, secret = $6,
			headers = $7, filters = $8, retry_count = $9, rate_limit = $10,
			status = $11, last_status_time = $12, metadata = $13, updated_at = $14
		WHERE id = $1 AND tenant_id = $2`,
		sub.ID.String(), tenantID, sub.Name, sub.EventTypes, sub.DestinationURL,
		sub.Secret, headers, filters, sub.RetryCount, sub.RateLimit,
		string(sub.Status), lastStatus, metadata, now())
	if err != nil {
		return false, fmt.Errorf("dispatch/postgres: update subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a subscription.
func (s *Store) Delete(ctx context.Context, tenantID string, subID id.ID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM dispatch_subscriptions
		WHERE id = $1 AND tenant_id = $2`,
		subID.String(), tenantID)
	if err != nil {
		return false, fmt.Errorf("dispatch/postgres: delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetPage returns one page of the tenant's subscriptions in creation order.
func (s *Store) GetPage(ctx context.Context, tenantID string, q subscription.PageQuery) ([]*subscription.Subscription, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM dispatch_subscriptions WHERE tenant_id = $1`,
		tenantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/postgres: count subscriptions: %w", err)
	}

	query := `
		SELECT ` + subscriptionColumns + `
		FROM dispatch_subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at ASC
		OFFSET $2`
	args := []any{tenantID, q.Offset()}
	if q.PageSize > 0 {
		query += ` LIMIT $3`
		args = append(args, q.PageSize)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch/postgres: page subscriptions: %w", err)
	}
	defer rows.Close()

	var result []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("dispatch/postgres: scan subscription: %w", err)
		}
		result = append(result, sub)
	}
	return result, total, rows.Err()
}

// marshalJSONColumns encodes the JSONB columns of a subscription.
func marshalJSONColumns(sub *subscription.Subscription) (headers, filters, metadata []byte, err error) {
	if sub.Headers != nil {
		if headers, err = json.Marshal(sub.Headers); err != nil {
			return nil, nil, nil, fmt.Errorf("dispatch/postgres: marshal headers: %w", err)
		}
	}
	if sub.Filters != nil {
		if filters, err = json.Marshal(sub.Filters); err != nil {
			return nil, nil, nil, fmt.Errorf("dispatch/postgres: marshal filters: %w", err)
		}
	}
	if sub.Metadata != nil {
		if metadata, err = json.Marshal(sub.Metadata); err != nil {
			return nil, nil, nil, fmt.Errorf("dispatch/postgres: marshal metadata: %w", err)
		}
	}
	return headers, filters, metadata, nil
}

// scanSubscription decodes one row into a Subscription.
func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		rawID      string
		sub        subscription.Subscription
		status     string
		lastStatus *time.Time
		headers    []byte
		filters    []byte
		metadata   []byte
	)

	err := row.Scan(&rawID, &sub.TenantID, &sub.Name, &sub.EventTypes,
		&sub.DestinationURL, &sub.Secret, &headers, &filters,
		&sub.RetryCount, &sub.RateLimit, &status, &lastStatus,
		&metadata, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	subID, err := id.ParseSubscriptionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", rawID, err)
	}
	sub.ID = subID
	sub.Status = subscription.Status(status)
	if lastStatus != nil {
		sub.LastStatusTime = *lastStatus
	}

	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &sub.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &sub.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal filters: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &sub.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &sub, nil
}
