package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shelfwise/bookstore/internal/apperr"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/events"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

const (
	msgInvalidID       = "Please enter a valid id"
	msgBookNotFound    = "Book not found"
	msgInvalidCategory = "Please enter correct category"
	msgUnknownOwner    = "Book owner does not exist"
)

// BookCommandService owns every book write. The owner of a book is always
// the authenticated caller.
type BookCommandService struct {
	books     store.BookStore
	cache     BookCache
	publisher events.Emitter
	validate  *validator.Validate
	log       *slog.Logger
}

func NewBookCommandService(
	books store.BookStore,
	cache BookCache,
	publisher events.Emitter,
	validate *validator.Validate,
	log *slog.Logger,
) *BookCommandService {
	if cache == nil {
		cache = noopCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookCommandService{
		books:     books,
		cache:     cache,
		publisher: publisher,
		validate:  validate,
		log:       log,
	}
}

func (s *BookCommandService) CreateBook(ctx context.Context, cmd cqrs.CreateBookCommand) (*models.Book, error) {
	if !utils.ValidateObjectID(cmd.UserID) {
		return nil, apperr.New(apperr.ErrInvalidArgument, msgInvalidID)
	}
	if !cmd.Book.Category.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, msgInvalidCategory)
	}

	book := cmd.Book
	book.ID = ""
	book.User = cmd.UserID
	if err := s.books.CreateBook(ctx, &book); err != nil {
		return nil, translateBookError(err, "Failed to create book")
	}

	s.publish(ctx, events.BookCreated, events.BookCreatedEvent{
		BookID:   book.ID,
		UserID:   book.User,
		Title:    book.Title,
		Category: string(book.Category),
		Price:    book.Price,
	})
	return &book, nil
}

func (s *BookCommandService) UpdateBook(ctx context.Context, cmd cqrs.UpdateBookCommand) (*models.Book, error) {
	if !utils.ValidateObjectID(cmd.BookID) {
		return nil, apperr.New(apperr.ErrInvalidArgument, msgInvalidID)
	}
	if err := s.validate.Struct(cmd.Patch); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, patchErrorMessage(err), err)
	}

	// Nothing to change: answer with the stored record, no write or event.
	if cmd.Patch.Empty() {
		book, err := s.books.FindBookByID(ctx, cmd.BookID)
		if err != nil {
			return nil, translateBookError(err, "Failed to update book")
		}
		return book, nil
	}

	book, err := s.books.UpdateBookByID(ctx, cmd.BookID, cmd.Patch)
	if err != nil {
		return nil, translateBookError(err, "Failed to update book")
	}

	s.cache.Delete(ctx, cmd.BookID)
	s.publish(ctx, events.BookUpdated, events.BookUpdatedEvent{
		BookID: book.ID,
		Fields: patchFields(cmd.Patch),
	})
	return book, nil
}

func (s *BookCommandService) DeleteBook(ctx context.Context, cmd cqrs.DeleteBookCommand) (*models.Book, error) {
	if !utils.ValidateObjectID(cmd.BookID) {
		return nil, apperr.New(apperr.ErrInvalidArgument, msgInvalidID)
	}

	book, err := s.books.DeleteBookByID(ctx, cmd.BookID)
	if err != nil {
		return nil, translateBookError(err, "Failed to delete book")
	}

	s.cache.Delete(ctx, cmd.BookID)
	s.publish(ctx, events.BookDeleted, events.BookDeletedEvent{
		BookID: book.ID,
		UserID: book.User,
	})
	return book, nil
}

func (s *BookCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.BookEventsStream, eventType, data); err != nil {
		s.log.Warn("failed to publish book event", "type", eventType, "error", err)
	}
}

func translateBookError(err error, fallback string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(apperr.ErrNotFound, msgBookNotFound, err)
	case errors.Is(err, store.ErrConstraint):
		return apperr.Wrap(apperr.ErrInvalidArgument, msgInvalidCategory, err)
	case errors.Is(err, store.ErrMissingReference):
		return apperr.Wrap(apperr.ErrInvalidArgument, msgUnknownOwner, err)
	}
	return apperr.Wrap(apperr.ErrPersistence, fallback, err)
}

func patchErrorMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		switch fe.Tag() {
		case "oneof":
			return msgInvalidCategory
		case "gte":
			return "Price must not be negative"
		case "min":
			return fe.Field() + " must not be empty"
		}
	}
	return "Invalid book data"
}

func patchFields(p models.BookPatch) []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Author != nil {
		fields = append(fields, "author")
	}
	if p.Price != nil {
		fields = append(fields, "price")
	}
	if p.Category != nil {
		fields = append(fields, "category")
	}
	return fields
}

type noopCache struct{}

func (noopCache) Delete(context.Context, string) {}
