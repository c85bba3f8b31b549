package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if !book.Category.Valid() {
		return store.ErrConstraint
	}
	if book.ID == "" {
		book.ID = utils.GenerateID()
	}
	now := s.now()
	book.CreatedAt, book.UpdatedAt = now, now

	doc, err := newBookDocument(book)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	if _, err := s.books.InsertOne(ctx, doc); err != nil {
		if translated := translate(err); translated != err {
			return translated
		}
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (s *Store) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var doc bookDocument
	if err := s.books.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if translated := translate(err); errors.Is(translated, store.ErrNotFound) {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	b := doc.model()
	return &b, nil
}

// bookFilter matches titles containing q.TitleContains literally and
// case-insensitively.
func bookFilter(q store.BookQuery) bson.D {
	if q.TitleContains == "" {
		return bson.D{}
	}
	return bson.D{{Key: "title", Value: primitive.Regex{
		Pattern: regexp.QuoteMeta(q.TitleContains),
		Options: "i",
	}}}
}

func findBooksOptions(q store.BookQuery) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	return opts
}

func (s *Store) FindBooks(ctx context.Context, q store.BookQuery) ([]models.Book, error) {
	cursor, err := s.books.Find(ctx, bookFilter(q), findBooksOptions(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]models.Book, 0)
	for cursor.Next(ctx) {
		var doc bookDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode book: %w", err)
		}
		books = append(books, doc.model())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// bookUpdate builds the $set document for patch. updatedAt is always set.
func bookUpdate(patch models.BookPatch, now time.Time) bson.D {
	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *patch.Author})
	}
	if patch.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *patch.Price})
	}
	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: string(*patch.Category)})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: now})
	return bson.D{{Key: "$set", Value: set}}
}

func (s *Store) UpdateBookByID(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, store.ErrConstraint
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bookDocument
	err = s.books.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, bookUpdate(patch, s.now()), opts).Decode(&doc)
	if err != nil {
		if translated := translate(err); errors.Is(translated, store.ErrNotFound) {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	b := doc.model()
	return &b, nil
}

func (s *Store) DeleteBookByID(ctx context.Context, id string) (*models.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var doc bookDocument
	if err := s.books.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if translated := translate(err); errors.Is(translated, store.ErrNotFound) {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}
	b := doc.model()
	return &b, nil
}
