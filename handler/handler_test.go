package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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
	"github.com/emzola/bookshelf/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookData struct{}

func (stubBookData) SearchBook(ctx context.Context, isbn string) (*data.Book, []string, error) {
	if isbn != "9780141439518" {
		return nil, nil, bookdata.ErrNotFound
	}
	isbn13 := isbn
	return &data.Book{
		Title:       "Pride and Prejudice",
		Author:      "Jane Austen",
		Isbn13:      &isbn13,
		PublishDate: time.Date(2003, 4, 29, 0, 0, 0, 0, time.UTC),
	}, []string{"Fiction"}, nil
}

func (stubBookData) DownloadThumbnail(ctx context.Context, bookID, url string) error {
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []importer.Event
}

func (s *recordingSink) Post(event importer.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

type testServer struct {
	*httptest.Server
	svc  service.Service
	sink *recordingSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "bookshelf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := covers.NewDirStore(t.TempDir())
	require.NoError(t, err)

	var cfg config.Config
	cfg.Server.Env = "testing"
	cfg.Import.TempDir = t.TempDir()
	cfg.Admin.Username = "admin"
	cfg.Admin.Email = "admin@example.com"
	cfg.Admin.Password = "adm1n-pa55word"
	cfg.BasicAuth.Username = "metrics"
	cfg.BasicAuth.Password = "s3cret"

	var wg sync.WaitGroup
	t.Cleanup(wg.Wait)
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	sink := &recordingSink{}
	svc := service.New(cfg, &wg, logger, repository.New(db), stubBookData{}, store, sink)
	require.NoError(t, svc.BootstrapAdmin(context.Background()))

	ts := httptest.NewServer(New(cfg, logger, svc).Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, svc: svc, sink: sink}
}

// login registers username when needed and returns a bearer token for it.
func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	if username != "admin" {
		_, err := ts.svc.RegisterUser(context.Background(), dto.RegisterUserRequestBody{
			Username: username, Email: username + "@example.com", Password: password,
		})
		require.NoError(t, err)
	}
	status, body := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, status)
	var res struct {
		Token data.Token `json:"authentication_token"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	return res.Token.Plaintext
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload interface{}) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		js, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(js)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

type errorBody struct {
	Error struct {
		Type    string          `json:"type"`
		Message json.RawMessage `json:"message"`
	} `json:"error"`
}

func errorType(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error.Type
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"environment": "testing"`)

	status, body = ts.do(t, http.MethodGet, "/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NotFound", errorType(t, body))
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AuthenticationRequired", errorType(t, body))

	status, _ = ts.do(t, http.MethodGet, "/v1/books", "ABCDEFGHIJKLMNOPQRSTUVWXYZ", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "InvalidCredentials", errorType(t, body))

	token := ts.login(t, "alice", "pa55word!")
	status, body = ts.do(t, http.MethodGet, "/v1/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"username": "alice"`)

	status, _ = ts.do(t, http.MethodDelete, "/v1/tokens/authentication", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodGet, "/v1/users/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBookEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice", "pa55word!")
	bob := ts.login(t, "bob", "pa55word!")

	status, body := ts.do(t, http.MethodPut, "/v1/books", alice, dto.AddBookRequestBody{Isbn: "9780141439518"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	status, body = ts.do(t, http.MethodPut, "/v1/books", alice, dto.AddBookRequestBody{Isbn: "9780141439518"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AlreadyAdded", errorType(t, body))

	status, _ = ts.do(t, http.MethodPut, "/v1/books", bob, dto.AddBookRequestBody{Isbn: "9780141439518"})
	assert.Equal(t, http.StatusCreated, status)

	status, body = ts.do(t, http.MethodPut, "/v1/books", alice, dto.AddBookRequestBody{Isbn: "9780000000002"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "LookupFailed", errorType(t, body))

	status, body = ts.do(t, http.MethodPut, "/v1/books", alice, dto.AddBookRequestBody{Isbn: "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ValidationError", errorType(t, body))

	status, body = ts.do(t, http.MethodGet, "/v1/books?limit=5&sort_column=title&asc=true", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Books    []data.UserBookEntry `json:"books"`
		Metadata data.Metadata        `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Books, 1)
	assert.Equal(t, created.ID, list.Books[0].ID)
	assert.Equal(t, data.Metadata{Total: 1, Limit: 5, Offset: 0}, list.Metadata)

	status, body = ts.do(t, http.MethodGet, "/v1/books?sort_column=colour", alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ValidationError", errorType(t, body))

	status, _ = ts.do(t, http.MethodGet, "/v1/books/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodGet, "/v1/books/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = ts.do(t, http.MethodPut, "/v1/books/"+created.ID+"/tags", alice, dto.SetTagsRequestBody{Tags: []string{"unknown"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "TagNotFound", errorType(t, body))

	status, body = ts.do(t, http.MethodPost, "/v1/tags", alice, dto.CreateTagRequestBody{Name: "classics"})
	require.Equal(t, http.StatusCreated, status)
	var tagRes struct {
		Tag data.Tag `json:"tag"`
	}
	require.NoError(t, json.Unmarshal(body, &tagRes))
	status, _ = ts.do(t, http.MethodPut, "/v1/books/"+created.ID+"/tags", alice, dto.SetTagsRequestBody{Tags: []string{tagRes.Tag.ID}})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = ts.do(t, http.MethodPost, "/v1/books/"+created.ID+"/read", alice, dto.SetReadRequestBody{Read: true})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = ts.do(t, http.MethodPost, "/v1/books/"+created.ID+"/rating", alice, dto.RateBookRequestBody{Value: 4})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"average": 4`)

	status, body = ts.do(t, http.MethodGet, "/v1/books/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Book data.UserBookDetail `json:"book"`
	}
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "Pride and Prejudice", detail.Book.Book.Title)
	assert.NotNil(t, detail.Book.ReadDate)
	require.Len(t, detail.Book.Tags, 1)
	assert.Equal(t, 1, detail.Book.Rating.Count)

	status, body = ts.do(t, http.MethodPost, "/v1/books/"+created.ID, alice, map[string]string{"subtitle": "A Novel"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"subtitle": "A Novel"`)

	status, body = ts.do(t, http.MethodPost, "/v1/books/"+created.ID, alice, map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BadRequest", errorType(t, body))

	status, _ = ts.do(t, http.MethodGet, "/v1/books/"+created.ID+"/cover", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, "/v1/books/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodDelete, "/v1/books/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestImportEndpoint(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice", "pa55word!")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "goodreads_library_export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Title,Author,ISBN,ISBN13\nEmma,Jane Austen,0141439580,9780141439587\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/v1/books/import", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	status, _ := ts.send(t, req)
	assert.Equal(t, http.StatusAccepted, status)
	ts.sink.mu.Lock()
	require.Len(t, ts.sink.events, 1)
	assert.Equal(t, "alice", ts.sink.events[0].Username)
	ts.sink.mu.Unlock()

	status, _ = ts.do(t, http.MethodPut, "/v1/books/import", alice, map[string]string{"file": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAddBookManualEndpoint(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice", "pa55word!")

	status, body := ts.do(t, http.MethodPut, "/v1/books/manual", alice, dto.AddBookManualRequestBody{
		Title:       "Emma",
		Author:      "Jane Austen",
		Isbn10:      "0141439580",
		PublishDate: "2003-05-01",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = ts.do(t, http.MethodPut, "/v1/books/manual", alice, dto.AddBookManualRequestBody{Title: "No ISBN", Author: "Anonymous", PublishDate: "2003-05-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "at least one ISBN")

	status, _ = ts.do(t, http.MethodPut, "/v1/books/elsewhere", alice, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "adm1n-pa55word")
	alice := ts.login(t, "alice", "pa55word!")

	status, body := ts.do(t, http.MethodGet, "/v1/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", errorType(t, body))

	status, body = ts.do(t, http.MethodPut, "/v1/admin/users", admin, dto.RegisterUserRequestBody{Username: "carol", Email: "carol@example.com", Password: "pa55word!"})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = ts.do(t, http.MethodPut, "/v1/admin/users", admin, dto.RegisterUserRequestBody{Username: "carol", Email: "carol@example.com", Password: "pa55word!"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AlreadyExists", errorType(t, body))

	status, body = ts.do(t, http.MethodGet, "/v1/admin/users?sort_column=username&asc=true", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Users    []data.User   `json:"users"`
		Metadata data.Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 3, list.Metadata.Total)
	require.Len(t, list.Users, 3)
	assert.Equal(t, "admin", list.Users[0].Username)

	status, body = ts.do(t, http.MethodPost, "/v1/admin/users/carol", admin, map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"theme": "dark"`)

	status, body = ts.do(t, http.MethodDelete, "/v1/admin/users/admin", admin, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", errorType(t, body))

	status, _ = ts.do(t, http.MethodDelete, "/v1/admin/users/carol", admin, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodGet, "/v1/admin/users/carol", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDebugVarsRequiresBasicAuth(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/debug/vars", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/debug/vars", nil)
	require.NoError(t, err)
	req.SetBasicAuth("metrics", "s3cret")
	status, body := ts.send(t, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "memstats")
}

func TestSwaggerDocs(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/spec", "", nil)
	require.Equal(t, http.StatusOK, status)
	var doc struct {
		Swagger string                            `json:"swagger"`
		Paths   map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Contains(t, doc.Paths["/v1/books"], "get")
	assert.Contains(t, doc.Paths["/v1/books/manual"], "put")
	assert.Contains(t, doc.Paths["/v1/books/{id}/tags"], "put")
	assert.Contains(t, doc.Paths["/v1/admin/users/{username}"], "delete")

	status, body = ts.do(t, http.MethodGet, "/docs/index.html", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "/spec")

	status, body = ts.do(t, http.MethodGet, "/docs/doc.json", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, string(swaggerJSON), string(body))
}
