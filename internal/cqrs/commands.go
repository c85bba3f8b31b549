package cqrs

import "github.com/shelfwise/bookstore/internal/models"

type SignUpCommand struct {
	Name     string
	Email    string
	Password string
}

type LoginCommand struct {
	Email    string
	Password string
}

// CreateBookCommand carries the caller's identity separately from the book
// fields. Book.User is ignored.
type CreateBookCommand struct {
	Book   models.Book
	UserID string
}

type UpdateBookCommand struct {
	BookID string
	Patch  models.BookPatch
}

type DeleteBookCommand struct {
	BookID string
}
