package query

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/apperr"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

// BookCache is the read side of the book cache. Set only fills an empty
// slot; an invalidated slot stays empty until its hold expires.
type BookCache interface {
	Get(ctx context.Context, id string) (*models.Book, bool)
	Set(ctx context.Context, id string, book *models.Book)
}

// BookQueryService serves book reads, consulting the cache first when one is
// configured.
type BookQueryService struct {
	books store.BookStore
	cache BookCache
}

func NewBookQueryService(books store.BookStore, cache BookCache) *BookQueryService {
	return &BookQueryService{books: books, cache: cache}
}

func (s *BookQueryService) ListBooks(ctx context.Context, q cqrs.ListBooksQuery) ([]models.Book, error) {
	books, err := s.books.FindBooks(ctx, BuildListQuery(q.Limit, q.Page, q.Keyword))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, "Failed to list books", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

func (s *BookQueryService) GetBook(ctx context.Context, q cqrs.GetBookQuery) (*models.Book, error) {
	if !utils.ValidateObjectID(q.BookID) {
		return nil, apperr.New(apperr.ErrInvalidArgument, "Please enter a valid id")
	}
	if s.cache != nil {
		if book, ok := s.cache.Get(ctx, q.BookID); ok {
			return book, nil
		}
	}

	book, err := s.books.FindBookByID(ctx, q.BookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "Book not found", err)
		}
		return nil, apperr.Wrap(apperr.ErrPersistence, "Failed to get book", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, q.BookID, book)
	}
	return book, nil
}
