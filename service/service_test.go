package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/bookdata"
	"github.com/emzola/bookshelf/internal/covers"
	"github.com/emzola/bookshelf/internal/importer"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/repository"
	"github.com/emzola/bookshelf/repository/sqlite"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type lookupResult struct {
	book   data.Book
	genres []string
}

// fakeBookData serves canned lookups and records thumbnail downloads.
type fakeBookData struct {
	mu          sync.Mutex
	books       map[string]lookupResult
	lookups     int
	downloads   map[string]string
	downloadErr error
}

func newFakeBookData() *fakeBookData {
	return &fakeBookData{books: make(map[string]lookupResult), downloads: make(map[string]string)}
}

func (f *fakeBookData) add(isbn string, book data.Book, genres ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[isbn] = lookupResult{book: book, genres: genres}
}

func (f *fakeBookData) SearchBook(ctx context.Context, isbn string) (*data.Book, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	res, ok := f.books[isbn]
	if !ok {
		return nil, nil, bookdata.ErrNotFound
	}
	book := res.book
	return &book, append([]string(nil), res.genres...), nil
}

func (f *fakeBookData) DownloadThumbnail(ctx context.Context, bookID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloads[bookID] = url
	return nil
}

func (f *fakeBookData) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// fakeSink collects posted import events.
type fakeSink struct {
	mu     sync.Mutex
	events []importer.Event
}

func (f *fakeSink) Post(event importer.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type testEnv struct {
	svc      *service
	db       *sqlx.DB
	repo     repository.Repository
	bookData *fakeBookData
	sink     *fakeSink
	covers   *covers.DirStore
	wg       *sync.WaitGroup
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "bookshelf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := covers.NewDirStore(t.TempDir())
	require.NoError(t, err)

	var cfg config.Config
	cfg.Import.TempDir = t.TempDir()
	cfg.Admin.Username = "admin"
	cfg.Admin.Email = "admin@example.com"
	cfg.Admin.Password = "adm1n-pa55word"

	env := &testEnv{
		db:       db,
		repo:     repository.New(db),
		bookData: newFakeBookData(),
		sink:     &fakeSink{},
		covers:   store,
		wg:       &sync.WaitGroup{},
	}
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	env.svc = New(cfg, env.wg, logger, env.repo, env.bookData, store, env.sink)
	// Cleanups run last-in first-out, so background work finishes before the database closes.
	t.Cleanup(env.wg.Wait)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *data.User {
	t.Helper()
	user, err := e.svc.RegisterUser(context.Background(), dto.RegisterUserRequestBody{
		Username: username,
		Email:    username + "@example.com",
		Password: "pa55word!",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createTag(t *testing.T, ownerID, name string) *data.Tag {
	t.Helper()
	tag, err := e.svc.CreateTag(context.Background(), dto.CreateTagRequestBody{Name: name}, ownerID)
	require.NoError(t, err)
	return tag
}

func (e *testEnv) addManual(t *testing.T, ownerID, title, isbn13 string) string {
	t.Helper()
	id, err := e.svc.AddBookManual(context.Background(), dto.AddBookManualRequestBody{
		Title:       title,
		Author:      "Author of " + title,
		Isbn13:      isbn13,
		PublishDate: "2001-02-03",
	}, ownerID)
	require.NoError(t, err)
	return id
}

func stringPtr(s string) *string {
	return &s
}

// countRows returns the number of rows in table.
func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

var testPublishDate = time.Date(2003, 4, 29, 0, 0, 0, 0, time.UTC)
