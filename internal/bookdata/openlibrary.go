package bookdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/emzola/bookshelf/data"
)

type openLibraryBook struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	NumberOfPages int64  `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Identifiers   struct {
		Isbn10 []string `json:"isbn_10"`
		Isbn13 []string `json:"isbn_13"`
	} `json:"identifiers"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// maxOpenLibraryGenres caps the subjects kept as genres; Open Library lists dozens.
const maxOpenLibraryGenres = 5

func (s *Service) searchOpenLibrary(ctx context.Context, isbn string) (*Result, error) {
	bibkey := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("jscmd", "data")
	q.Set("format", "json")
	body, err := s.fetch(ctx, s.cfg.OpenLibraryURL+"?"+q.Encode(), 1<<20)
	if err != nil {
		return nil, err
	}
	var books map[string]openLibraryBook
	if err := json.Unmarshal(body, &books); err != nil {
		return nil, fmt.Errorf("decode open library response: %w", err)
	}
	ol, ok := books[bibkey]
	if !ok || ol.Title == "" {
		return nil, ErrNotFound
	}
	authors := make([]string, 0, len(ol.Authors))
	for _, a := range ol.Authors {
		authors = append(authors, a.Name)
	}
	book := data.Book{
		Title:       ol.Title,
		Subtitle:    data.StringOrNil(ol.Subtitle),
		Author:      strings.Join(authors, ", "),
		PublishDate: parsePublishDate(ol.PublishDate),
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if ol.NumberOfPages > 0 {
		pageCount := ol.NumberOfPages
		book.PageCount = &pageCount
	}
	if len(ol.Identifiers.Isbn10) > 0 {
		book.Isbn10 = data.StringOrNil(data.NormalizeIsbn(ol.Identifiers.Isbn10[0]))
	}
	if len(ol.Identifiers.Isbn13) > 0 {
		book.Isbn13 = data.StringOrNil(data.NormalizeIsbn(ol.Identifiers.Isbn13[0]))
	}
	setRequestedIsbn(&book, isbn)
	thumbnail := ol.Cover.Medium
	if thumbnail == "" {
		thumbnail = ol.Cover.Large
	}
	book.ThumbnailURL = data.StringOrNil(thumbnail)
	var genres []string
	for _, subject := range ol.Subjects {
		if len(genres) == maxOpenLibraryGenres {
			break
		}
		genres = append(genres, subject.Name)
	}
	return &Result{Book: book, Genres: genres}, nil
}
