package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstIsAdmin(n int64) models.Role {
	if n == 0 {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func seedBooks(t *testing.T, s *Store, titles ...string) {
	t.Helper()
	for _, title := range titles {
		require.NoError(t, s.CreateBook(context.Background(), &models.Book{
			Title: title, Author: "A", Description: "D", Price: 1, Category: models.CategoryCrime, User: "u",
		}))
	}
}

func TestCreateUser_AssignsRoleAndRejectsDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &models.User{Name: "Roland", Email: "roland@cimem.hu", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, first, firstIsAdmin))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, second, firstIsAdmin))
	assert.Equal(t, models.RoleUser, second.Role)

	dup := &models.User{Name: "Roland", Email: "roland@cimem.hu", PasswordHash: "h"}
	assert.ErrorIs(t, s.CreateUser(ctx, dup, firstIsAdmin), store.ErrDuplicateKey)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCreateUser_ConcurrentFirstSignupsYieldOneAdmin(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &models.User{Name: "user", Email: fmt.Sprintf("u%d@example.com", i)}
			assert.NoError(t, s.CreateUser(ctx, u, firstIsAdmin))
		}(i)
	}
	wg.Wait()

	admins := 0
	for _, u := range s.users {
		if u.Role == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestFindUserByEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	u := &models.User{Name: "Roland", Email: "roland@cimem.hu", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, u, firstIsAdmin))

	got, err := s.FindUserByEmail(ctx, "roland@cimem.hu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)
}

func TestFindBooks_SortFilterAndPaging(t *testing.T) {
	s := New()
	seedBooks(t, s, "Dune", "a tale of two cities", "Brave New World", "The Hobbit", "Hobbit Companion")
	ctx := context.Background()

	all, err := s.FindBooks(ctx, store.BookQuery{Sort: store.SortTitleAsc, Limit: 10})
	require.NoError(t, err)
	var titles []string
	for _, b := range all {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Brave New World", "Dune", "Hobbit Companion", "The Hobbit", "a tale of two cities"}, titles)

	page2, err := s.FindBooks(ctx, store.BookQuery{Sort: store.SortTitleAsc, Limit: 2, Skip: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "Hobbit Companion", page2[0].Title)

	hobbits, err := s.FindBooks(ctx, store.BookQuery{TitleContains: "HOBBIT", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, hobbits, 2)

	none, err := s.FindBooks(ctx, store.BookQuery{TitleContains: "zzz", Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	past, err := s.FindBooks(ctx, store.BookQuery{Limit: 10, Skip: 50})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestFindBooks_SkipBounds(t *testing.T) {
	s := New()
	seedBooks(t, s, "Dune", "Emma")
	ctx := context.Background()

	farthest, err := s.FindBooks(ctx, store.BookQuery{Limit: 10, Skip: math.MaxInt64})
	require.NoError(t, err)
	assert.NotNil(t, farthest)
	assert.Empty(t, farthest)

	negative, err := s.FindBooks(ctx, store.BookQuery{Limit: 10, Skip: -20})
	require.NoError(t, err)
	assert.Len(t, negative, 2)
}

func TestFindBooks_KeywordIsLiteral(t *testing.T) {
	s := New()
	seedBooks(t, s, "C++ Primer", "Cplusplus")

	got, err := s.FindBooks(context.Background(), store.BookQuery{TitleContains: "c++", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C++ Primer", got[0].Title)
}

func TestUpdateAndDeleteBook(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := &models.Book{Title: "Dune", Category: models.CategoryFantasy, User: "owner"}
	require.NoError(t, s.CreateBook(ctx, b))

	title := "Dune Messiah"
	updated, err := s.UpdateBookByID(ctx, b.ID, models.BookPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "owner", updated.User)

	bad := models.Category("Romance")
	_, err = s.UpdateBookByID(ctx, b.ID, models.BookPatch{Category: &bad})
	assert.ErrorIs(t, err, store.ErrConstraint)

	deleted, err := s.DeleteBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", deleted.Title)

	_, err = s.FindBookByID(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.DeleteBookByID(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UpdateBookByID(ctx, b.ID, models.BookPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
