// Package memory is an in-process store used by tests and by
// STORE_DRIVER=memory for local runs. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	books   map[string]models.Book
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		books:   make(map[string]models.Book),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User, assign store.RoleAssigner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return store.ErrDuplicateKey
	}
	if user.ID == "" {
		user.ID = utils.GenerateID()
	}
	now := s.now()
	user.Role = assign(int64(len(s.users)))
	user.CreatedAt, user.UpdatedAt = now, now

	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if !book.Category.Valid() {
		return store.ErrConstraint
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if book.ID == "" {
		book.ID = utils.GenerateID()
	}
	if _, exists := s.books[book.ID]; exists {
		return store.ErrDuplicateKey
	}
	now := s.now()
	book.CreatedAt, book.UpdatedAt = now, now
	s.books[book.ID] = *book
	return nil
}

func (s *Store) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) FindBooks(ctx context.Context, q store.BookQuery) ([]models.Book, error) {
	s.mu.RLock()
	matched := make([]models.Book, 0, len(s.books))
	needle := strings.ToLower(q.TitleContains)
	for _, b := range s.books {
		if needle == "" || strings.Contains(strings.ToLower(b.Title), needle) {
			matched = append(matched, b)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Title != matched[j].Title {
			return matched[i].Title < matched[j].Title
		}
		return matched[i].ID < matched[j].ID
	})

	skip := max(q.Skip, 0)
	if skip >= int64(len(matched)) {
		return []models.Book{}, nil
	}
	matched = matched[skip:]
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) UpdateBookByID(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, store.ErrConstraint
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&b)
	b.UpdatedAt = s.now()
	s.books[id] = b
	return &b, nil
}

func (s *Store) DeleteBookByID(ctx context.Context, id string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.books, id)
	return &b, nil
}
