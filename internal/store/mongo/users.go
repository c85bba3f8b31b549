package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CreateUser counts users and, when assign grants admin, claims the admin
// marker document before inserting. Only one insert of the marker can
// succeed, so concurrent first signups yield a single admin. The marker is
// released again if the user insert fails.
func (s *Store) CreateUser(ctx context.Context, user *models.User, assign store.RoleAssigner) error {
	if user.ID == "" {
		user.ID = utils.GenerateID()
	}

	existing, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	role := assign(existing)

	claimed := false
	if role == models.RoleAdmin {
		claimed, err = s.claimAdmin(ctx, user.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// Someone else holds the claim and counts as an existing user.
			role = assign(max(existing, 1))
		}
	}

	now := s.now()
	user.Role = role
	user.CreatedAt, user.UpdatedAt = now, now
	doc, err := newUserDocument(user)
	if err == nil {
		_, err = s.users.InsertOne(ctx, doc)
	}
	if err != nil {
		if claimed {
			s.releaseAdmin(user.ID)
		}
		user.Role = ""
		if translated := translate(err); errors.Is(translated, store.ErrDuplicateKey) {
			return translated
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) claimAdmin(ctx context.Context, userID string) (bool, error) {
	_, err := s.bootstrap.InsertOne(ctx, bson.D{
		{Key: "_id", Value: adminMarkerID},
		{Key: "user", Value: userID},
		{Key: "createdAt", Value: s.now()},
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim admin role: %w", err)
	}
	return true, nil
}

// releaseAdmin runs on a fresh context so a cancelled request still cleans up.
func (s *Store) releaseAdmin(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = s.bootstrap.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: adminMarkerID},
		{Key: "user", Value: userID},
	})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if translated := translate(err); errors.Is(translated, store.ErrNotFound) {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.model(), nil
}
