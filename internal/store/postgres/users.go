package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CreateUser serialises signups with a SHARE ROW EXCLUSIVE lock on users so
// the count and the insert see the same table state. Readers are not blocked.
func (s *Store) CreateUser(ctx context.Context, user *models.User, assign store.RoleAssigner) error {
	if user.ID == "" {
		user.ID = utils.GenerateID()
	}
	now := s.now()

	err := s.withTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock users: %w", err)
		}
		var existing int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&existing); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		role := assign(existing)

		query := `
			INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query,
			user.ID, user.Name, user.Email, user.PasswordHash, string(role), now, now,
		); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err == nil {
		user.CreatedAt, user.UpdatedAt = now, now
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint != emailUniqueConstraint {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if translated := translate(err); errors.Is(translated, store.ErrDuplicateKey) {
		return translated
	}
	return fmt.Errorf("failed to create user: %w", err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	var role string
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if translated := translate(err); errors.Is(translated, store.ErrNotFound) {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}
