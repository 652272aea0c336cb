// Package mongo provides a MongoDB-backed Store implementation using the
// official driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	dispatchstore "github.com/xraph/dispatch/store"
)

// colSubscriptions is the collection subscriptions are stored in.
const colSubscriptions = "dispatch_subscriptions"

// compile-time interface check.
var _ dispatchstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	db     *mongo.Database
	client *mongo.Client
}

// New creates a new MongoDB store over the given database.
func New(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		client: db.Client(),
	}
}

// subscriptions returns the subscriptions collection.
func (s *Store) subscriptions() *mongo.Collection {
	return s.db.Collection(colSubscriptions)
}

// Migrate creates the indexes for the subscriptions collection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := s.subscriptions().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("dispatch/mongo: migrate %s indexes: %w", colSubscriptions, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error is the driver's no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
