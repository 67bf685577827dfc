package bookdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/emzola/bookshelf/data"
)

type googleVolumes struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			PublishedDate       string   `json:"publishedDate"`
			PageCount           int64    `json:"pageCount"`
			Categories          []string `json:"categories"`
			Language            string   `json:"language"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				SmallThumbnail string `json:"smallThumbnail"`
				Thumbnail      string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (s *Service) searchGoogleBooks(ctx context.Context, isbn string) (*Result, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	if s.cfg.APIKey != "" {
		q.Set("key", s.cfg.APIKey)
	}
	body, err := s.fetch(ctx, s.cfg.GoogleBooksURL+"?"+q.Encode(), 1<<20)
	if err != nil {
		return nil, err
	}
	var volumes googleVolumes
	if err := json.Unmarshal(body, &volumes); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}
	if volumes.TotalItems == 0 || len(volumes.Items) == 0 {
		return nil, ErrNotFound
	}
	info := volumes.Items[0].VolumeInfo
	if info.Title == "" {
		return nil, ErrNotFound
	}
	book := data.Book{
		Title:       info.Title,
		Subtitle:    data.StringOrNil(info.Subtitle),
		Author:      strings.Join(info.Authors, ", "),
		Description: data.StringOrNil(info.Description),
		PublishDate: parsePublishDate(info.PublishedDate),
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if info.PageCount > 0 {
		pageCount := info.PageCount
		book.PageCount = &pageCount
	}
	if len(info.Language) == 2 {
		book.Language = data.StringOrNil(strings.ToLower(info.Language))
	}
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			book.Isbn10 = data.StringOrNil(data.NormalizeIsbn(id.Identifier))
		case "ISBN_13":
			book.Isbn13 = data.StringOrNil(data.NormalizeIsbn(id.Identifier))
		}
	}
	setRequestedIsbn(&book, isbn)
	thumbnail := info.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = info.ImageLinks.SmallThumbnail
	}
	book.ThumbnailURL = data.StringOrNil(strings.Replace(thumbnail, "http://", "https://", 1))
	return &Result{Book: book, Genres: info.Categories}, nil
}

// setRequestedIsbn makes sure the looked up ISBN is recorded on the book so
// later lookups of the same ISBN resolve to the catalog record.
func setRequestedIsbn(book *data.Book, isbn string) {
	switch data.IsbnKind(isbn) {
	case 10:
		if book.Isbn10 == nil {
			book.Isbn10 = data.StringOrNil(isbn)
		}
	case 13:
		if book.Isbn13 == nil {
			book.Isbn13 = data.StringOrNil(isbn)
		}
	}
}
