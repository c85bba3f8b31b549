// Package store declares the persistence contract shared by the postgres,
// mongo and memory adapters.
package store

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/models"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrConstraint is returned when the store rejects a value (check
	// constraint, enum membership).
	ErrConstraint = errors.New("store: constraint violation")
	// ErrMissingReference is returned when a record points at a row that does
	// not exist, such as a book whose owner is gone.
	ErrMissingReference = errors.New("store: missing reference")
)

// RoleAssigner picks the role of a new user from the number of users that
// already exist. Adapters call it inside the same atomic unit as the insert.
type RoleAssigner func(existingUsers int64) models.Role

// SortTitleAsc is the only sort order the listing supports.
const SortTitleAsc = "title"

// BookQuery is the store-level form of find(filter).sort().limit().skip().
type BookQuery struct {
	// TitleContains filters titles by case-insensitive literal substring.
	// Empty means no filter.
	TitleContains string
	Sort          string
	Limit         int64
	Skip          int64
}

type UserStore interface {
	CountUsers(ctx context.Context) (int64, error)
	// CreateUser counts existing users, sets user.Role from assign and
	// inserts the user atomically. It fills user.ID when empty and returns
	// ErrDuplicateKey when the email is taken.
	CreateUser(ctx context.Context, user *models.User, assign RoleAssigner) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	FindBookByID(ctx context.Context, id string) (*models.Book, error)
	FindBooks(ctx context.Context, q BookQuery) ([]models.Book, error)
	// UpdateBookByID applies patch and returns the updated record.
	UpdateBookByID(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error)
	// DeleteBookByID removes the book and returns its last stored state.
	DeleteBookByID(ctx context.Context, id string) (*models.Book, error)
}

type Store interface {
	UserStore
	BookStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
