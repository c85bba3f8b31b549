package command

import (
	"context"

	"github.com/shelfwise/bookstore/internal/models"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, error)
}

// BookCache is the invalidation side of the book read cache.
type BookCache interface {
	Delete(ctx context.Context, id string)
}
