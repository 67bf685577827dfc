package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *repository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "bookshelf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func createTestUser(t *testing.T, r *repository, username string) *data.User {
	t.Helper()
	user := &data.User{Username: username, Email: username + "@example.com", Role: data.RoleUser, Locale: data.DefaultLocale, Theme: data.DefaultTheme}
	require.NoError(t, user.Password.Set("pa55word!"))
	require.NoError(t, r.RegisterUser(context.Background(), user))
	return user
}

func createTestBook(t *testing.T, r *repository, title, isbn13 string) *data.Book {
	t.Helper()
	book := &data.Book{
		Title:       title,
		Author:      "Author of " + title,
		Isbn13:      data.StringOrNil(isbn13),
		PublishDate: time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.CreateBook(context.Background(), book))
	return book
}

func addTestUserBook(t *testing.T, r *repository, userID, bookID string) *data.UserBook {
	t.Helper()
	ub := &data.UserBook{UserID: userID, BookID: bookID}
	require.NoError(t, r.CreateUserBook(context.Background(), ub))
	return ub
}

func TestTransactRollsBack(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")
	book := createTestBook(t, r, "Emma", "9780141439587")

	errBoom := errors.New("boom")
	err := r.Transact(ctx, func(tx Repository) error {
		if err := tx.CreateUserBook(ctx, &data.UserBook{UserID: user.ID, BookID: book.ID}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = r.GetUserBookByBook(ctx, user.ID, book.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	err = r.Transact(ctx, func(tx Repository) error {
		return tx.CreateUserBook(ctx, &data.UserBook{UserID: user.ID, BookID: book.ID})
	})
	require.NoError(t, err)
	_, err = r.GetUserBookByBook(ctx, user.ID, book.ID)
	assert.NoError(t, err)
}

func TestBooks(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	book := createTestBook(t, r, "Pride and Prejudice", "9780141439518")
	assert.NotEmpty(t, book.ID)

	got, err := r.GetBookByIsbn(ctx, "9780141439518")
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)
	assert.Nil(t, got.Isbn10)
	assert.Nil(t, got.Subtitle)
	assert.True(t, book.PublishDate.Equal(got.PublishDate))

	_, err = r.GetBookByIsbn(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// Two books without ISBN-10 don't collide on the NULL column.
	createTestBook(t, r, "Persuasion", "9780141439686")

	dup := &data.Book{Title: "Copy", Author: "X", Isbn13: data.StringOrNil("9780141439518"), PublishDate: time.Now()}
	assert.ErrorIs(t, r.CreateBook(ctx, dup), ErrDuplicateRecord)

	got.Subtitle = data.StringOrNil("A Novel")
	got.Isbn10 = data.StringOrNil("0141439513")
	require.NoError(t, r.UpdateBook(ctx, got))
	got, err = r.GetBookByIsbn(ctx, "0141439513")
	require.NoError(t, err)
	assert.Equal(t, "A Novel", *got.Subtitle)

	require.NoError(t, r.ReplaceGenresForBook(ctx, book.ID, []string{"Romance", "Classics", "Romance"}))
	genres, err := r.GetGenresForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Classics", "Romance"}, genres)
	require.NoError(t, r.ReplaceGenresForBook(ctx, book.ID, []string{"Fiction"}))
	genres, err = r.GetGenresForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiction"}, genres)
}

func TestUserBooks(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")
	bob := createTestUser(t, r, "bob")
	book := createTestBook(t, r, "Emma", "9780141439587")

	ub := addTestUserBook(t, r, alice.ID, book.ID)
	assert.ErrorIs(t, r.CreateUserBook(ctx, &data.UserBook{UserID: alice.ID, BookID: book.ID}), ErrDuplicateRecord)
	addTestUserBook(t, r, bob.ID, book.ID)

	_, err := r.GetUserBook(ctx, ub.ID, bob.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	now := time.Now()
	require.NoError(t, r.UpdateUserBookReadDate(ctx, ub.ID, alice.ID, &now))
	got, err := r.GetUserBook(ctx, ub.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadDate)
	require.NoError(t, r.UpdateUserBookReadDate(ctx, ub.ID, alice.ID, nil))
	got, err = r.GetUserBook(ctx, ub.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReadDate)
	assert.ErrorIs(t, r.UpdateUserBookReadDate(ctx, ub.ID, bob.ID, nil), ErrRecordNotFound)

	tag := &data.Tag{UserID: alice.ID, Name: "classics", Color: data.DefaultTagColor}
	require.NoError(t, r.CreateTag(ctx, tag))
	require.NoError(t, r.ReplaceTagsForUserBook(ctx, ub.ID, []string{tag.ID}))

	assert.ErrorIs(t, r.DeleteUserBook(ctx, ub.ID, bob.ID), ErrRecordNotFound)
	require.NoError(t, r.DeleteUserBook(ctx, ub.ID, alice.ID))
	assert.ErrorIs(t, r.DeleteUserBook(ctx, ub.ID, alice.ID), ErrRecordNotFound)
	tagsByEntry, err := r.GetTagsForUserBooks(ctx, []string{ub.ID})
	require.NoError(t, err)
	assert.Empty(t, tagsByEntry)

	_, err = r.GetBook(ctx, book.ID)
	assert.NoError(t, err, "catalog book survives removal from a library")
}

func TestFindUserBooksPagination(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")
	bob := createTestUser(t, r, "bob")
	for i := 0; i < 15; i++ {
		book := createTestBook(t, r, fmt.Sprintf("Book %02d", i), fmt.Sprintf("97800000000%02d", i))
		addTestUserBook(t, r, alice.ID, book.ID)
	}
	other := createTestBook(t, r, "Bob's book", "9789999999999")
	addTestUserBook(t, r, bob.ID, other.ID)

	filters := data.Filters{PageLimit: 10, PageOffset: 0, Sort: -1, SortSafeList: data.UserBookSortSafeList}
	first, md, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{}, filters)
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, 15, md.Total)

	filters.PageOffset = 10
	second, md, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{}, filters)
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, 15, md.Total)

	seen := make(map[string]bool)
	for _, e := range append(first, second...) {
		assert.False(t, seen[e.ID], "entry %s returned twice", e.ID)
		seen[e.ID] = true
		assert.NotEqual(t, "Bob's book", e.Title)
	}
	assert.Len(t, seen, 15)

	filters.PageOffset = 40
	empty, md, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{}, filters)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 15, md.Total)

	filters = data.Filters{PageLimit: 3, Sort: 0, Asc: true, SortSafeList: data.UserBookSortSafeList}
	sorted, _, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{}, filters)
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"Book 00", "Book 01", "Book 02"}, []string{sorted[0].Title, sorted[1].Title, sorted[2].Title})
}

func TestFindUserBooksSearchFoldsUnicode(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")
	addTestUserBook(t, r, alice.ID, createTestBook(t, r, "Émile ou De l'éducation", "9782080700179").ID)
	addTestUserBook(t, r, alice.ID, createTestBook(t, r, "Emma", "9780141439587").ID)
	filters := data.Filters{Sort: 0, Asc: true, SortSafeList: data.UserBookSortSafeList}

	for _, search := range []string{"émile", "ÉMILE", "L'ÉDUCATION"} {
		entries, md, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{Search: search}, filters)
		require.NoError(t, err)
		require.Len(t, entries, 1, search)
		assert.Equal(t, "Émile ou De l'éducation", entries[0].Title)
		assert.Equal(t, 1, md.Total)
	}
}

func TestFindUserBooksFilters(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")
	filters := data.Filters{Sort: 0, Asc: true, SortSafeList: data.UserBookSortSafeList}

	emma := addTestUserBook(t, r, alice.ID, createTestBook(t, r, "Emma", "9780141439587").ID)
	addTestUserBook(t, r, alice.ID, createTestBook(t, r, "Persuasion", "9780141439686").ID)
	addTestUserBook(t, r, alice.ID, createTestBook(t, r, "100% Coverage", "9780000000100").ID)

	now := time.Now()
	require.NoError(t, r.UpdateUserBookReadDate(ctx, emma.ID, alice.ID, &now))
	tag := &data.Tag{UserID: alice.ID, Name: "favourite", Color: data.DefaultTagColor}
	require.NoError(t, r.CreateTag(ctx, tag))
	require.NoError(t, r.ReplaceTagsForUserBook(ctx, emma.ID, []string{tag.ID}))

	titles := func(filter UserBookFilter) []string {
		entries, md, err := r.FindUserBooks(ctx, alice.ID, filter, filters)
		require.NoError(t, err)
		assert.Equal(t, len(entries), md.Total)
		out := []string{}
		for _, e := range entries {
			out = append(out, e.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Persuasion"}, titles(UserBookFilter{Search: "SUAS"}))
	assert.Equal(t, []string{"100% Coverage", "Emma", "Persuasion"}, titles(UserBookFilter{Search: "author of"}))
	assert.Equal(t, []string{"100% Coverage"}, titles(UserBookFilter{Search: "100%"}))
	assert.Empty(t, titles(UserBookFilter{Search: "_"}))

	read, unread := true, false
	assert.Equal(t, []string{"Emma"}, titles(UserBookFilter{Read: &read}))
	assert.Equal(t, []string{"100% Coverage", "Persuasion"}, titles(UserBookFilter{Read: &unread}))
	assert.Equal(t, []string{"Emma"}, titles(UserBookFilter{TagID: tag.ID}))
	assert.Empty(t, titles(UserBookFilter{TagID: tag.ID, Read: &unread}))

	entries, _, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{TagID: tag.ID}, filters)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Tags, 1)
	assert.Equal(t, "favourite", entries[0].Tags[0].Name)
	assert.NotNil(t, entries[0].ReadDate)
}

func TestRatings(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	book := createTestBook(t, r, "Emma", "9780141439587")

	summary, err := r.GetRatingSummary(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, summary.Average)
	assert.Equal(t, 0, summary.Count)

	for i, value := range []int{5, 4, 2} {
		user := createTestUser(t, r, fmt.Sprintf("rater%d", i))
		require.NoError(t, r.CreateRating(ctx, &data.Rating{BookID: book.ID, UserID: user.ID, Value: value}))
	}
	ratings, err := r.GetRatingsForBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 3)

	summary, err = r.GetRatingSummary(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.Equal(t, *data.AverageRating(ratings), *summary.Average)
	assert.Equal(t, data.RatingCount(ratings), summary.Count)

	dup := &data.Rating{BookID: book.ID, UserID: ratings[0].UserID, Value: 1}
	assert.ErrorIs(t, r.CreateRating(ctx, dup), ErrDuplicateRecord)

	first := ratings[0]
	first.Value = 1
	require.NoError(t, r.UpdateRatingValue(ctx, &first))
	got, err := r.GetRating(ctx, book.ID, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Value)
	assert.Equal(t, first.ID, got.ID)

	alice := createTestUser(t, r, "alice")
	addTestUserBook(t, r, alice.ID, book.ID)
	entries, _, err := r.FindUserBooks(ctx, alice.ID, UserBookFilter{}, data.Filters{Sort: -1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Rating)
	assert.InDelta(t, 7.0/3.0, *entries[0].Rating, 1e-12)
}

func TestTags(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")
	bob := createTestUser(t, r, "bob")

	tag := &data.Tag{UserID: alice.ID, Name: "scifi", Color: "#ff0000"}
	require.NoError(t, r.CreateTag(ctx, tag))
	assert.ErrorIs(t, r.CreateTag(ctx, &data.Tag{UserID: alice.ID, Name: "scifi", Color: "#00ff00"}), ErrDuplicateRecord)
	require.NoError(t, r.CreateTag(ctx, &data.Tag{UserID: bob.ID, Name: "scifi", Color: "#00ff00"}))

	_, err := r.GetTagByName(ctx, bob.ID, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = r.GetTag(ctx, tag.ID, bob.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	tag.Name = "science-fiction"
	require.NoError(t, r.UpdateTag(ctx, tag))
	all, err := r.GetAllTagsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "science-fiction", all[0].Name)

	assert.ErrorIs(t, r.DeleteTag(ctx, tag.ID, bob.ID), ErrRecordNotFound)
	require.NoError(t, r.DeleteTag(ctx, tag.ID, alice.ID))
	all, err = r.GetAllTagsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUsersAndTokens(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	alice := createTestUser(t, r, "alice")

	dup := &data.User{Username: "alice", Email: "other@example.com", Role: data.RoleUser}
	require.NoError(t, dup.Password.Set("pa55word!"))
	assert.ErrorIs(t, r.RegisterUser(ctx, dup), ErrDuplicateRecord)

	got, err := r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	ok, err := got.Password.Matches("pa55word!")
	require.NoError(t, err)
	assert.True(t, ok)

	got.Theme = "dark"
	require.NoError(t, r.UpdateUser(ctx, got))
	stale := *alice
	stale.Theme = "light"
	assert.ErrorIs(t, r.UpdateUser(ctx, &stale), ErrEditConflict)

	token, err := r.CreateNewToken(ctx, alice.ID, time.Hour, data.ScopeAuthentication)
	require.NoError(t, err)
	assert.Len(t, token.Plaintext, 26)
	user, err := r.GetUserForToken(ctx, data.ScopeAuthentication, token.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "dark", user.Theme)

	expired, err := r.CreateNewToken(ctx, alice.ID, -time.Hour, data.ScopeAuthentication)
	require.NoError(t, err)
	_, err = r.GetUserForToken(ctx, data.ScopeAuthentication, expired.Plaintext)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	n, err := r.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.DeleteToken(ctx, data.ScopeAuthentication, token.Plaintext))
	_, err = r.GetUserForToken(ctx, data.ScopeAuthentication, token.Plaintext)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	createTestUser(t, r, "bob")
	list, md, err := r.GetAllUsers(ctx, data.Filters{Sort: -1, SortSafeList: UserSortSafeList})
	require.NoError(t, err)
	assert.Equal(t, 2, md.Total)
	assert.Equal(t, "alice", list[0].Username)

	require.NoError(t, r.DeleteUser(ctx, alice.ID))
	_, err = r.GetUserByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
