package data

import (
	"strings"
	"time"

	"github.com/emzola/bookshelf/internal/validator"
)

// PublishDateLayout is the layout accepted for publish dates supplied by clients.
const PublishDateLayout = "2006-01-02"

// Book defines a catalog book. Catalog books are shared by every user that
// adds the same edition to their library.
type Book struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Subtitle     *string   `json:"subtitle,omitempty" db:"subtitle"`
	Author       string    `json:"author" db:"author"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Isbn10       *string   `json:"isbn10,omitempty" db:"isbn10"`
	Isbn13       *string   `json:"isbn13,omitempty" db:"isbn13"`
	PageCount    *int64    `json:"page_count,omitempty" db:"page_count"`
	Language     *string   `json:"language,omitempty" db:"language"`
	PublishDate  time.Time `json:"publish_date" db:"publish_date"`
	ThumbnailURL *string   `json:"thumbnail,omitempty" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"create_date" db:"created_at"`
	Genres       []string  `json:"genres,omitempty" db:"-"`
}

// Genre defines a catalog genre.
type Genre struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// NormalizeIsbn strips separators from an ISBN and upper-cases a trailing check character.
func NormalizeIsbn(isbn string) string {
	r := strings.NewReplacer("-", "", " ", "", "\t", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(isbn)))
}

// IsbnKind reports whether a normalized ISBN is an ISBN-10 or an ISBN-13.
// It returns 0 when the value is neither.
func IsbnKind(isbn string) int {
	switch len(isbn) {
	case 10:
		for i, c := range isbn {
			if c >= '0' && c <= '9' {
				continue
			}
			if i == 9 && c == 'X' {
				continue
			}
			return 0
		}
		return 10
	case 13:
		for _, c := range isbn {
			if c < '0' || c > '9' {
				return 0
			}
		}
		return 13
	default:
		return 0
	}
}

func ValidateIsbn(v *validator.Validator, isbn string) {
	v.Check(isbn != "", "isbn", "must be provided")
	v.Check(IsbnKind(isbn) != 0, "isbn", "must be a valid ISBN-10 or ISBN-13")
}

func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 255, "title", "must not be more than 255 bytes long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(len(book.Author) <= 255, "author", "must not be more than 255 bytes long")
	if book.Subtitle != nil {
		v.Check(len(*book.Subtitle) <= 255, "subtitle", "must not be more than 255 bytes long")
	}
	if book.Description != nil {
		v.Check(len(*book.Description) <= 4000, "description", "must not be more than 4000 bytes long")
	}
	if book.Isbn10 != nil {
		v.Check(len(*book.Isbn10) == 10, "isbn10", "must be exactly 10 characters long")
		v.Check(IsbnKind(*book.Isbn10) == 10, "isbn10", "must contain only digits and an optional trailing X")
	}
	if book.Isbn13 != nil {
		v.Check(len(*book.Isbn13) == 13, "isbn13", "must be exactly 13 characters long")
		v.Check(IsbnKind(*book.Isbn13) == 13, "isbn13", "must contain only digits")
	}
	v.Check(book.Isbn10 != nil || book.Isbn13 != nil, "isbn", "at least one ISBN number is mandatory")
	if book.Language != nil {
		v.Check(len(*book.Language) == 2, "language", "must be exactly 2 characters long")
	}
	if book.PageCount != nil {
		v.Check(*book.PageCount >= 0, "page_count", "must not be negative")
	}
	v.Check(!book.PublishDate.IsZero(), "publish_date", "must be provided")
}

// StringOrNil returns nil for empty strings so optional columns are stored as NULL.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
