// Package bookdata looks books up by ISBN on public metadata APIs and
// downloads their cover thumbnails.
package bookdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/covers"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/gabriel-vasile/mimetype"
	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrNotFound is returned when no provider knows the ISBN.
	ErrNotFound = errors.New("no book found for isbn")
	// ErrUnsupportedImage is returned when a thumbnail is not a supported image.
	ErrUnsupportedImage = errors.New("unsupported thumbnail image type")
)

// maxThumbnailSize bounds the size of a downloaded thumbnail.
const maxThumbnailSize = 5 << 20

var thumbnailTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the endpoints and tuning of the metadata lookup.
type Config struct {
	GoogleBooksURL string
	OpenLibraryURL string
	APIKey         string
	CacheTTL       time.Duration
}

// Result is a looked up book and its genres.
type Result struct {
	Book   data.Book
	Genres []string
}

// Service queries Google Books first and falls back to Open Library.
// Successful lookups are cached for Config.CacheTTL.
type Service struct {
	cfg    Config
	client *http.Client
	store  covers.Store
	logger *jsonlog.Logger
	cache  *ttlcache.Cache[string, *Result]
}

// New creates a lookup service. Close stops its cache janitor.
func New(cfg Config, client *http.Client, store covers.Store, logger *jsonlog.Logger) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Result](cfg.CacheTTL),
		ttlcache.WithDisableTouchOnHit[string, *Result](),
	)
	go cache.Start()
	return &Service{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger,
		cache:  cache,
	}
}

// Close stops the cache janitor.
func (s *Service) Close() {
	s.cache.Stop()
}

// SearchBook looks up a normalized ISBN. It returns ErrNotFound when neither
// provider knows the book.
func (s *Service) SearchBook(ctx context.Context, isbn string) (*data.Book, []string, error) {
	if item := s.cache.Get(isbn); item != nil {
		result := item.Value()
		book := result.Book
		return &book, append([]string(nil), result.Genres...), nil
	}
	result, err := s.searchGoogleBooks(ctx, isbn)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.PrintError(err, map[string]string{"isbn": isbn, "provider": "google_books"})
		}
		result, err = s.searchOpenLibrary(ctx, isbn)
		if err != nil {
			return nil, nil, err
		}
	}
	s.cache.Set(isbn, result, ttlcache.DefaultTTL)
	book := result.Book
	return &book, append([]string(nil), result.Genres...), nil
}

// DownloadThumbnail fetches the image at rawURL and stores it as the cover of bookID.
// Only JPEG, PNG, GIF and WebP images are accepted.
func (s *Service) DownloadThumbnail(ctx context.Context, bookID, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid thumbnail url %q", rawURL)
	}
	body, err := s.fetch(ctx, u.String(), maxThumbnailSize)
	if err != nil {
		return err
	}
	mtype := mimetype.Detect(body)
	if !validator.Mime(mtype, thumbnailTypes...) {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
	}
	return s.store.Put(ctx, bookID, mtype.String(), bytes.NewReader(body))
}

// fetch performs a GET request and returns at most limit bytes of the body.
func (s *Service) fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "bookshelf/1.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", redact(rawURL), resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// redact drops the query string, which may carry an API key.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

var publishDateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
	"Jan 2006",
	"2 January 2006",
	time.RFC3339,
}

// parsePublishDate parses the loosely formatted dates returned by the providers.
// Unparseable dates yield the zero time.
func parsePublishDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range publishDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
