// Package store defines the composite Store interface for dispatch
// persistence.
//
// The subscription subsystem defines its own store interface; the aggregate
// Store composes it with backend lifecycle operations. Backends live in
// subpackages (memory, redis, mongo, postgres).
package store

import (
	"context"

	"github.com/xraph/dispatch/subscription"
)

// Store is the aggregate persistence interface.
type Store interface {
	subscription.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
