package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type userBooks interface {
	CreateUserBook(ctx context.Context, userBook *data.UserBook) error
	GetUserBook(ctx context.Context, ID, userID string) (*data.UserBook, error)
	GetUserBookByBook(ctx context.Context, userID, bookID string) (*data.UserBook, error)
	UpdateUserBookReadDate(ctx context.Context, ID, userID string, readDate *time.Time) error
	DeleteUserBook(ctx context.Context, ID, userID string) error
	FindUserBooks(ctx context.Context, userID string, filter UserBookFilter, filters data.Filters) ([]*data.UserBookEntry, data.Metadata, error)
}

// UserBookFilter holds the resolved criteria of a library search. TagID is
// empty when no tag filter applies.
type UserBookFilter struct {
	Search string
	Read   *bool
	TagID  string
}

// averageRatingSQL evaluates to the mean rating of the book aliased b, or NULL without ratings.
const averageRatingSQL = "(SELECT AVG(r.value * 1.0) FROM ratings r WHERE r.book_id = b.id)"

var userBookSortExpressions = map[string]string{
	"title":        "b.title",
	"subtitle":     "b.subtitle",
	"author":       "b.author",
	"language":     "b.language",
	"publish_date": "b.publish_date",
	"created_at":   "ub.created_at",
	"read_date":    "ub.read_date",
	"rating":       averageRatingSQL,
}

// CreateUserBook creates a library entry. A second entry for the same user and
// book is rejected with ErrDuplicateRecord.
func (r *repository) CreateUserBook(ctx context.Context, userBook *data.UserBook) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	query, args, err := r.dialect.Insert("user_books").Rows(goqu.Record{
		"id":         id,
		"user_id":    userBook.UserID,
		"book_id":    userBook.BookID,
		"created_at": createdAt,
		"read_date":  utcPtr(userBook.ReadDate),
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
	userBook.ID = id
	userBook.CreatedAt = createdAt
	return nil
}

// GetUserBook retrieves a library entry by its ID. Entries owned by another
// user are reported as not found.
func (r *repository) GetUserBook(ctx context.Context, ID, userID string) (*data.UserBook, error) {
	return r.getUserBook(ctx, goqu.Ex{"id": ID, "user_id": userID})
}

// GetUserBookByBook retrieves the library entry of a user for a catalog book.
func (r *repository) GetUserBookByBook(ctx context.Context, userID, bookID string) (*data.UserBook, error) {
	return r.getUserBook(ctx, goqu.Ex{"user_id": userID, "book_id": bookID})
}

func (r *repository) getUserBook(ctx context.Context, where goqu.Ex) (*data.UserBook, error) {
	query, args, err := r.dialect.From("user_books").
		Select("id", "user_id", "book_id", "created_at", "read_date").
		Where(where).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var userBook data.UserBook
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = sqlx.GetContext(ctx, r.db, &userBook, query, args...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &userBook, nil
}

// UpdateUserBookReadDate sets or clears the read date of a library entry.
func (r *repository) UpdateUserBookReadDate(ctx context.Context, ID, userID string, readDate *time.Time) error {
	query, args, err := r.dialect.Update("user_books").
		Set(goqu.Record{"read_date": utcPtr(readDate)}).
		Where(goqu.Ex{"id": ID, "user_id": userID}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// DeleteUserBook deletes a library entry and its tag links. The catalog book is kept.
func (r *repository) DeleteUserBook(ctx context.Context, ID, userID string) error {
	owned := r.dialect.From("user_books").Select("id").Where(goqu.Ex{"id": ID, "user_id": userID})
	query, args, err := r.dialect.Delete("user_book_tags").
		Where(goqu.C("user_book_id").In(owned)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	query, args, err = r.dialect.Delete("user_books").
		Where(goqu.Ex{"id": ID, "user_id": userID}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// FindUserBooks retrieves a page of the library entries of a user matching
// filter, together with the unpaginated number of matches.
func (r *repository) FindUserBooks(ctx context.Context, userID string, filter UserBookFilter, filters data.Filters) ([]*data.UserBookEntry, data.Metadata, error) {
	where := []exp.Expression{goqu.I("ub.user_id").Eq(userID)}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, goqu.Or(
			goqu.L(`LOWER(b.title) LIKE ? ESCAPE '\'`, pattern),
			goqu.L(`LOWER(b.subtitle) LIKE ? ESCAPE '\'`, pattern),
			goqu.L(`LOWER(b.author) LIKE ? ESCAPE '\'`, pattern),
		))
	}
	if filter.Read != nil {
		if *filter.Read {
			where = append(where, goqu.I("ub.read_date").IsNotNull())
		} else {
			where = append(where, goqu.I("ub.read_date").IsNull())
		}
	}
	if filter.TagID != "" {
		where = append(where, goqu.L("EXISTS (SELECT 1 FROM user_book_tags ubt WHERE ubt.user_book_id = ub.id AND ubt.tag_id = ?)", filter.TagID))
	}

	base := r.dialect.From(goqu.T("user_books").As("ub")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("ub.book_id").Eq(goqu.I("b.id")))).
		Where(where...)

	countQuery, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, data.Metadata{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var totalRecords int
	if err := sqlx.GetContext(ctx, r.db, &totalRecords, countQuery, countArgs...); err != nil {
		return nil, data.Metadata{}, err
	}

	query, args, err := base.Select(
		goqu.I("ub.id"),
		goqu.I("b.title"),
		goqu.I("b.subtitle"),
		goqu.I("b.author"),
		goqu.I("b.language"),
		goqu.I("b.publish_date"),
		goqu.I("ub.created_at"),
		goqu.I("ub.read_date"),
		goqu.I("b.thumbnail_url"),
		goqu.L("(SELECT COALESCE(SUM(r.value), 0) FROM ratings r WHERE r.book_id = b.id)").As("rating_sum"),
		goqu.L("(SELECT COUNT(*) FROM ratings r WHERE r.book_id = b.id)").As("rating_count"),
	).
		Order(userBookOrder(filters)...).
		Limit(uint(filters.Limit())).
		Offset(uint(filters.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, data.Metadata{}, err
	}
	entries := []*data.UserBookEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, data.Metadata{}, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry.Rating = data.Mean(entry.RatingSum, entry.RatingCount)
		entry.Tags = []*data.Tag{}
		ids = append(ids, entry.ID)
	}
	tagsByEntry, err := r.GetTagsForUserBooks(ctx, ids)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	for _, entry := range entries {
		if tags, ok := tagsByEntry[entry.ID]; ok {
			entry.Tags = tags
		}
	}
	metadata := data.CalculateMetadata(totalRecords, filters)
	return entries, metadata, nil
}

// userBookOrder builds the ORDER BY clause. NULL values sort last in both
// directions and the entry ID breaks ties so that pages are stable.
func userBookOrder(filters data.Filters) []exp.OrderedExpression {
	column, asc := filters.SortColumn(), filters.Asc
	if column == "" {
		column, asc = "created_at", false
	}
	expr := userBookSortExpressions[column]
	sorted := goqu.L(expr).Desc()
	if asc {
		sorted = goqu.L(expr).Asc()
	}
	return []exp.OrderedExpression{
		goqu.L(fmt.Sprintf("CASE WHEN %s IS NULL THEN 1 ELSE 0 END", expr)).Asc(),
		sorted,
		goqu.I("ub.id").Asc(),
	}
}

// escapeLike escapes the LIKE wildcards of s so it is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *repository) execAffectingOne(ctx context.Context, query string, args []interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
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
