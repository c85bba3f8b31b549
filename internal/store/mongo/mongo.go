// Package mongo implements store.Store on MongoDB. It keeps the document
// layout of the users and books collections: ObjectID keys, a unique email
// index and a user reference on every book.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfwise/bookstore/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	booksCollection     = "books"
	bootstrapCollection = "bootstrap"

	// adminMarkerID keys the document whose insert claims the admin role.
	adminMarkerID = "admin"
)

type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	books     *mongo.Collection
	bootstrap *mongo.Collection
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the primary and prepares the collections of
// database dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		books:     db.Collection(booksCollection),
		bootstrap: db.Collection(bootstrapCollection),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique email index and the title index used by
// the listing. Creating an existing index is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	_, err = s.books.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("title_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create books index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto store sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
	}
	return err
}
