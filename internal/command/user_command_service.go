package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfwise/bookstore/internal/apperr"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/events"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
)

// FirstUserRole makes the very first account an admin.
func FirstUserRole(existingUsers int64) models.Role {
	if existingUsers == 0 {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// UserCommandService registers users and issues their first token.
type UserCommandService struct {
	users     store.UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	publisher events.Emitter
	log       *slog.Logger
}

func NewUserCommandService(
	users store.UserStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	publisher events.Emitter,
	log *slog.Logger,
) *UserCommandService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserCommandService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
	}
}

func (s *UserCommandService) SignUp(ctx context.Context, cmd cqrs.SignUpCommand) (string, error) {
	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrPersistence, "Failed to create user", err)
	}

	user := &models.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
	}
	if err := s.users.CreateUser(ctx, user, FirstUserRole); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return "", apperr.Wrap(apperr.ErrDuplicateResource, "Duplicate email entered", err)
		}
		return "", apperr.Wrap(apperr.ErrPersistence, "Failed to create user", err)
	}

	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	}); err != nil {
		s.log.Warn("failed to publish user.created event", "user_id", user.ID, "error", err)
	}

	signed, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrPersistence, "Failed to issue token", err)
	}
	return signed, nil
}

// HandleUserEvent is the audit handler for the user.events stream.
func (s *UserCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.UserCreated:
		var data events.UserCreatedEvent
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		if models.Role(data.Role) == models.RoleAdmin {
			s.log.Warn("bootstrap admin account created", "user_id", data.UserID, "email", data.Email)
			return nil
		}
		s.log.Info("user registered", "user_id", data.UserID)
	default:
		s.log.Debug("ignoring user event", "type", event.Type)
	}
	return nil
}
