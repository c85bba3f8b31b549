package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

const bookColumns = `id, title, description, author, price, category, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var b models.Book
	var category string
	if err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.Author, &b.Price, &category, &b.User, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Category = models.Category(category)
	return &b, nil
}

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = utils.GenerateID()
	}
	now := s.now()
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Description, book.Author, book.Price,
		string(book.Category), book.User, now, now,
	)
	if err != nil {
		if translated := translate(err); translated != err {
			return translated
		}
		return fmt.Errorf("failed to create book: %w", err)
	}
	book.CreatedAt, book.UpdatedAt = now, now
	return nil
}

func (s *Store) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

// likeEscaper escapes ILIKE wildcards so keywords match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildFindBooks renders q as SQL. Sort is always title ascending in byte
// order with id as tie-breaker, the same order the other stores use.
func buildFindBooks(q store.BookQuery) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + bookColumns + ` FROM books`)
	if q.TitleContains != "" {
		args = append(args, "%"+likeEscaper.Replace(q.TitleContains)+"%")
		fmt.Fprintf(&sb, ` WHERE title ILIKE $%d`, len(args))
	}
	sb.WriteString(` ORDER BY title COLLATE "C" ASC, id ASC`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}
	return sb.String(), args
}

func (s *Store) FindBooks(ctx context.Context, q store.BookQuery) ([]models.Book, error) {
	query, args := buildFindBooks(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// UpdateBookByID leaves a column untouched when the matching patch field is
// nil (COALESCE with a NULL parameter).
func (s *Store) UpdateBookByID(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}
	query := `
		UPDATE books
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			author = COALESCE($4, author),
			price = COALESCE($5, price),
			category = COALESCE($6, category),
			updated_at = $7
		WHERE id = $1
		RETURNING ` + bookColumns
	b, err := scanBook(s.db.QueryRowContext(ctx, query,
		id, patch.Title, patch.Description, patch.Author, patch.Price, category, s.now(),
	))
	if err != nil {
		if translated := translate(err); translated != err {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBookByID(ctx context.Context, id string) (*models.Book, error) {
	query := `DELETE FROM books WHERE id = $1 RETURNING ` + bookColumns
	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}
	return b, nil
}
