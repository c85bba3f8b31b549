package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/apperr"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/events"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/store/memory"
	"github.com/shelfwise/bookstore/internal/token"
	"github.com/shelfwise/bookstore/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type publishedEvent struct {
	stream    string
	eventType string
	data      any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (r *recordingEmitter) Publish(_ context.Context, stream, eventType string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{stream, eventType, data})
	return r.err
}

type recordingCache struct {
	deleted []string
}

func (c *recordingCache) Delete(_ context.Context, id string) { c.deleted = append(c.deleted, id) }

type failingUserStore struct {
	store.UserStore
	err error
}

func (f failingUserStore) CreateUser(context.Context, *models.User, store.RoleAssigner) error {
	return f.err
}

func newUserService(t *testing.T, users store.UserStore, emitter events.Emitter) (*UserCommandService, *token.Manager) {
	t.Helper()
	hasher, err := utils.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	return NewUserCommandService(users, hasher, tokens, emitter, nil), tokens
}

func TestFirstUserRole(t *testing.T) {
	assert.Equal(t, models.RoleAdmin, FirstUserRole(0))
	assert.Equal(t, models.RoleUser, FirstUserRole(1))
	assert.Equal(t, models.RoleUser, FirstUserRole(42))
}

func TestSignUp_FirstUserIsAdmin(t *testing.T) {
	st := memory.New()
	emitter := &recordingEmitter{}
	svc, tokens := newUserService(t, st, emitter)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, cqrs.SignUpCommand{Name: "Roland", Email: "roland@cimem.hu", Password: "Password123"})
	require.NoError(t, err)
	claims, err := tokens.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	second, err := svc.SignUp(ctx, cqrs.SignUpCommand{Name: "Alice", Email: "alice@example.com", Password: "Password123"})
	require.NoError(t, err)
	claims, err = tokens.Parse(second)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	stored, err := st.FindUserByEmail(ctx, "roland@cimem.hu")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Password123")))

	require.Len(t, emitter.events, 2)
	assert.Equal(t, events.UserEventsStream, emitter.events[0].stream)
	assert.Equal(t, events.UserCreated, emitter.events[0].eventType)
	assert.Equal(t, "admin", emitter.events[0].data.(events.UserCreatedEvent).Role)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	st := memory.New()
	svc, _ := newUserService(t, st, nil)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, cqrs.SignUpCommand{Name: "Roland", Email: "roland@cimem.hu", Password: "Password123"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, cqrs.SignUpCommand{Name: "Roland", Email: "roland@cimem.hu", Password: "Password123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDuplicateResource)
	assert.Equal(t, "Duplicate email entered", err.Error())

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSignUp_StoreFailure(t *testing.T) {
	svc, _ := newUserService(t, failingUserStore{err: errors.New("connection refused")}, nil)
	_, err := svc.SignUp(context.Background(), cqrs.SignUpCommand{Name: "Roland", Email: "roland@cimem.hu", Password: "Password123"})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestSignUp_PublishFailureDoesNotFail(t *testing.T) {
	svc, _ := newUserService(t, memory.New(), &recordingEmitter{err: errors.New("redis down")})
	signed, err := svc.SignUp(context.Background(), cqrs.SignUpCommand{Name: "Roland", Email: "roland@cimem.hu", Password: "Password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
}

func TestSignUp_ConcurrentFirstUsers(t *testing.T) {
	st := memory.New()
	svc, tokens := newUserService(t, st, nil)

	const n = 16
	var wg sync.WaitGroup
	roles := make([]models.Role, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			signed, err := svc.SignUp(context.Background(), cqrs.SignUpCommand{
				Name:     "User",
				Email:    string(rune('a'+i)) + "@example.com",
				Password: "Password123",
			})
			if err != nil {
				return
			}
			if claims, err := tokens.Parse(signed); err == nil {
				roles[i] = claims.Role
			}
		}(i)
	}
	wg.Wait()

	admins := 0
	for _, r := range roles {
		if r == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestHandleUserEvent(t *testing.T) {
	svc, _ := newUserService(t, memory.New(), nil)
	ctx := context.Background()

	err := svc.HandleUserEvent(ctx, events.Event{
		Type: events.UserCreated,
		Data: map[string]any{"userId": "u1", "email": "a@b.c", "role": "admin"},
	})
	assert.NoError(t, err)

	err = svc.HandleUserEvent(ctx, events.Event{Type: events.UserCreated, Data: "not an object"})
	assert.Error(t, err)

	assert.NoError(t, svc.HandleUserEvent(ctx, events.Event{Type: "user.unknown"}))
}

const ownerID = "654b6757cb2dad9ea8d151f6"

func newBookService(t *testing.T) (*BookCommandService, *memory.Store, *recordingCache, *recordingEmitter) {
	t.Helper()
	st := memory.New()
	cache := &recordingCache{}
	emitter := &recordingEmitter{}
	return NewBookCommandService(st, cache, emitter, nil, nil), st, cache, emitter
}

func sampleBook() models.Book {
	return models.Book{
		Title:       "Dune",
		Description: "Desert planet",
		Author:      "Frank Herbert",
		Price:       9.99,
		Category:    models.CategoryFantasy,
	}
}

func TestCreateBook_StampsOwner(t *testing.T) {
	svc, st, _, emitter := newBookService(t)
	ctx := context.Background()

	input := sampleBook()
	input.User = "654b6757cb2dad9ea8d15100"
	input.ID = "deadbeefdeadbeefdeadbeef"

	book, err := svc.CreateBook(ctx, cqrs.CreateBookCommand{Book: input, UserID: ownerID})
	require.NoError(t, err)
	assert.Equal(t, ownerID, book.User)
	assert.True(t, utils.ValidateObjectID(book.ID))
	assert.NotEqual(t, "deadbeefdeadbeefdeadbeef", book.ID)

	stored, err := st.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, stored.User)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.BookCreated, emitter.events[0].eventType)
}

func TestCreateBook_InvalidCategory(t *testing.T) {
	svc, _, _, _ := newBookService(t)
	input := sampleBook()
	input.Category = "Romance"

	_, err := svc.CreateBook(context.Background(), cqrs.CreateBookCommand{Book: input, UserID: ownerID})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Equal(t, "Please enter correct category", err.Error())
}

type rejectingBookStore struct {
	store.BookStore
	err error
}

func (r rejectingBookStore) CreateBook(context.Context, *models.Book) error { return r.err }

func TestCreateBook_StoreRejections(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    error
		message string
	}{
		{"owner row missing", fmt.Errorf("%w: books_user_id_fkey", store.ErrMissingReference), apperr.ErrInvalidArgument, "Book owner does not exist"},
		{"check constraint", store.ErrConstraint, apperr.ErrInvalidArgument, "Please enter correct category"},
		{"connection lost", errors.New("connection reset"), apperr.ErrPersistence, "Failed to create book"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewBookCommandService(rejectingBookStore{err: tt.err}, nil, nil, nil, nil)
			_, err := svc.CreateBook(context.Background(), cqrs.CreateBookCommand{Book: sampleBook(), UserID: ownerID})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestUpdateBook(t *testing.T) {
	svc, _, cache, emitter := newBookService(t)
	ctx := context.Background()
	created, err := svc.CreateBook(ctx, cqrs.CreateBookCommand{Book: sampleBook(), UserID: ownerID})
	require.NoError(t, err)

	price := 4.5
	updated, err := svc.UpdateBook(ctx, cqrs.UpdateBookCommand{BookID: created.ID, Patch: models.BookPatch{Price: &price}})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Price)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, ownerID, updated.User)
	assert.Equal(t, []string{created.ID}, cache.deleted)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, events.BookUpdated, last.eventType)
	assert.Equal(t, []string{"price"}, last.data.(events.BookUpdatedEvent).Fields)
}

func TestUpdateBook_EmptyPatch(t *testing.T) {
	svc, _, cache, emitter := newBookService(t)
	ctx := context.Background()
	created, err := svc.CreateBook(ctx, cqrs.CreateBookCommand{Book: sampleBook(), UserID: ownerID})
	require.NoError(t, err)

	book, err := svc.UpdateBook(ctx, cqrs.UpdateBookCommand{BookID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, book.UpdatedAt)
	assert.Empty(t, cache.deleted)
	assert.Len(t, emitter.events, 1)

	_, err = svc.UpdateBook(ctx, cqrs.UpdateBookCommand{BookID: "654bb7b8ab915398b4cb35e6"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateBook_Errors(t *testing.T) {
	svc, _, cache, _ := newBookService(t)
	ctx := context.Background()
	title := "New"
	empty := ""
	negative := -1.0
	romance := models.Category("Romance")

	tests := []struct {
		name    string
		cmd     cqrs.UpdateBookCommand
		kind    error
		message string
	}{
		{"malformed id", cqrs.UpdateBookCommand{BookID: "123", Patch: models.BookPatch{Title: &title}}, apperr.ErrInvalidArgument, "Please enter a valid id"},
		{"absent id", cqrs.UpdateBookCommand{BookID: "654bb7b8ab915398b4cb35e6", Patch: models.BookPatch{Title: &title}}, apperr.ErrNotFound, "Book not found"},
		{"bad category", cqrs.UpdateBookCommand{BookID: "654bb7b8ab915398b4cb35e6", Patch: models.BookPatch{Category: &romance}}, apperr.ErrInvalidArgument, "Please enter correct category"},
		{"negative price", cqrs.UpdateBookCommand{BookID: "654bb7b8ab915398b4cb35e6", Patch: models.BookPatch{Price: &negative}}, apperr.ErrInvalidArgument, "Price must not be negative"},
		{"empty title", cqrs.UpdateBookCommand{BookID: "654bb7b8ab915398b4cb35e6", Patch: models.BookPatch{Title: &empty}}, apperr.ErrInvalidArgument, "Title must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateBook(ctx, tt.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, err.Error())
		})
	}
	assert.Empty(t, cache.deleted)
}

func TestDeleteBook(t *testing.T) {
	svc, st, cache, emitter := newBookService(t)
	ctx := context.Background()
	created, err := svc.CreateBook(ctx, cqrs.CreateBookCommand{Book: sampleBook(), UserID: ownerID})
	require.NoError(t, err)

	deleted, err := svc.DeleteBook(ctx, cqrs.DeleteBookCommand{BookID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Dune", deleted.Title)
	assert.Equal(t, []string{created.ID}, cache.deleted)
	assert.Equal(t, events.BookDeleted, emitter.events[len(emitter.events)-1].eventType)

	_, err = st.FindBookByID(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.DeleteBook(ctx, cqrs.DeleteBookCommand{BookID: created.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.DeleteBook(ctx, cqrs.DeleteBookCommand{BookID: "nope"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
