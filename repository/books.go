package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type books interface {
	CreateBook(ctx context.Context, book *data.Book) error
	GetBook(ctx context.Context, ID string) (*data.Book, error)
	GetBookByIsbn(ctx context.Context, isbn string) (*data.Book, error)
	UpdateBook(ctx context.Context, book *data.Book) error
}

var bookColumns = []interface{}{
	"id", "title", "subtitle", "author", "description", "isbn10", "isbn13",
	"page_count", "language", "publish_date", "thumbnail_url", "created_at",
}

// CreateBook creates a new catalog book record. The book ID and creation date are set on success.
func (r *repository) CreateBook(ctx context.Context, book *data.Book) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	query, args, err := r.dialect.Insert("books").Rows(goqu.Record{
		"id":            id,
		"title":         book.Title,
		"subtitle":      nullable(book.Subtitle),
		"author":        book.Author,
		"description":   nullable(book.Description),
		"isbn10":        nullable(book.Isbn10),
		"isbn13":        nullable(book.Isbn13),
		"page_count":    nullable(book.PageCount),
		"language":      nullable(book.Language),
		"publish_date":  utc(book.PublishDate),
		"thumbnail_url": nullable(book.ThumbnailURL),
		"created_at":    createdAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDuplicateRecord
		default:
			return err
		}
	}
	book.ID = id
	book.CreatedAt = createdAt
	return nil
}

// GetBook retrieves a catalog book record by its ID.
func (r *repository) GetBook(ctx context.Context, ID string) (*data.Book, error) {
	query, args, err := r.dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("id").Eq(ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	return r.getBook(ctx, query, args)
}

// GetBookByIsbn retrieves the catalog book carrying isbn as either its ISBN-10 or ISBN-13.
func (r *repository) GetBookByIsbn(ctx context.Context, isbn string) (*data.Book, error) {
	if isbn == "" {
		return nil, ErrRecordNotFound
	}
	query, args, err := r.dialect.From("books").
		Select(bookColumns...).
		Where(goqu.Or(goqu.C("isbn13").Eq(isbn), goqu.C("isbn10").Eq(isbn))).
		Order(goqu.C("created_at").Asc()).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	return r.getBook(ctx, query, args)
}

func (r *repository) getBook(ctx context.Context, query string, args []interface{}) (*data.Book, error) {
	var book data.Book
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := sqlx.GetContext(ctx, r.db, &book, query, args...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// UpdateBook updates every editable column of a catalog book record.
func (r *repository) UpdateBook(ctx context.Context, book *data.Book) error {
	query, args, err := r.dialect.Update("books").Set(goqu.Record{
		"title":         book.Title,
		"subtitle":      nullable(book.Subtitle),
		"author":        book.Author,
		"description":   nullable(book.Description),
		"isbn10":        nullable(book.Isbn10),
		"isbn13":        nullable(book.Isbn13),
		"page_count":    nullable(book.PageCount),
		"language":      nullable(book.Language),
		"publish_date":  utc(book.PublishDate),
		"thumbnail_url": nullable(book.ThumbnailURL),
	}).Where(goqu.C("id").Eq(book.ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDuplicateRecord
		default:
			return err
		}
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
