package query

import (
	"context"
	"errors"
	"sync"

	"github.com/shelfwise/bookstore/internal/apperr"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
)

const msgInvalidCredentials = "Invalid email or password"

type PasswordVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, error)
}

// AuthQueryService handles login. It never mutates state, so there is no
// command-side counterpart.
type AuthQueryService struct {
	users  store.UserStore
	hasher PasswordVerifier
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthQueryService(users store.UserStore, hasher PasswordVerifier, tokens TokenIssuer) *AuthQueryService {
	return &AuthQueryService{users: users, hasher: hasher, tokens: tokens}
}

// Login returns the same error for an unknown email and a wrong password.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a comparison so an unknown email costs as much as a wrong password.
			s.hasher.Verify(cmd.Password, s.dummy())
			return "", apperr.New(apperr.ErrInvalidCredentials, msgInvalidCredentials)
		}
		return "", apperr.Wrap(apperr.ErrPersistence, "Failed to log in", err)
	}
	if !s.hasher.Verify(cmd.Password, user.PasswordHash) {
		return "", apperr.New(apperr.ErrInvalidCredentials, msgInvalidCredentials)
	}

	signed, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrPersistence, "Failed to issue token", err)
	}
	return signed, nil
}

func (s *AuthQueryService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("bookstore-timing-equaliser")
	})
	return s.dummyHash
}
