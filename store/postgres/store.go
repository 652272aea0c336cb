// Package postgres provides a PostgreSQL-backed Store implementation using
// pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	dispatchstore "github.com/xraph/dispatch/store"
)

// compile-time interface check.
var _ dispatchstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the subscriptions table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("dispatch/postgres: migrate: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS dispatch_subscriptions (
		id               TEXT PRIMARY KEY,
		tenant_id        TEXT NOT NULL,
		name             TEXT NOT NULL DEFAULT '',
		event_types      TEXT[] NOT NULL,
		destination_url  TEXT NOT NULL,
		secret           TEXT NOT NULL DEFAULT '',
		headers          JSONB,
		filters          JSONB,
		retry_count      INTEGER NOT NULL DEFAULT 0,
		rate_limit       INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		last_status_time TIMESTAMPTZ,
		metadata         JSONB,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_subscriptions_tenant_created
		ON dispatch_subscriptions (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_subscriptions_tenant_status
		ON dispatch_subscriptions (tenant_id, status)`,
}
