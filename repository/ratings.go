package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/emzola/bookshelf/data"
	"github.com/jmoiron/sqlx"
)

type ratings interface {
	CreateRating(ctx context.Context, rating *data.Rating) error
	GetRating(ctx context.Context, bookID, userID string) (*data.Rating, error)
	UpdateRatingValue(ctx context.Context, rating *data.Rating) error
	GetRatingsForBook(ctx context.Context, bookID string) ([]data.Rating, error)
	GetRatingSummary(ctx context.Context, bookID string) (data.RatingSummary, error)
}

var ratingColumns = []interface{}{"id", "book_id", "user_id", "value", "created_at"}

// CreateRating creates a rating record. A user rates a book at most once; a
// second rating is rejected with ErrDuplicateRecord.
func (r *repository) CreateRating(ctx context.Context, rating *data.Rating) error {
	rating.CreatedAt = time.Now().UTC()
	query, args, err := r.dialect.Insert("ratings").Rows(goqu.Record{
		"book_id":    rating.BookID,
		"user_id":    rating.UserID,
		"value":      rating.Value,
		"created_at": rating.CreatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDuplicateRecord
		default:
			return err
		}
	}
	stored, err := r.GetRating(ctx, rating.BookID, rating.UserID)
	if err != nil {
		return err
	}
	rating.ID = stored.ID
	return nil
}

// GetRating retrieves the rating a user gave to a book.
func (r *repository) GetRating(ctx context.Context, bookID, userID string) (*data.Rating, error) {
	query, args, err := r.dialect.From("ratings").
		Select(ratingColumns...).
		Where(goqu.Ex{"book_id": bookID, "user_id": userID}).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var rating data.Rating
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = sqlx.GetContext(ctx, r.db, &rating, query, args...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &rating, nil
}

// UpdateRatingValue replaces the value of an existing rating. The book and user
// of a rating never change.
func (r *repository) UpdateRatingValue(ctx context.Context, rating *data.Rating) error {
	query, args, err := r.dialect.Update("ratings").
		Set(goqu.Record{"value": rating.Value}).
		Where(goqu.C("id").Eq(rating.ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// GetRatingsForBook retrieves every rating of a book.
func (r *repository) GetRatingsForBook(ctx context.Context, bookID string) ([]data.Rating, error) {
	query, args, err := r.dialect.From("ratings").
		Select(ratingColumns...).
		Where(goqu.C("book_id").Eq(bookID)).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ratings := []data.Rating{}
	if err := sqlx.SelectContext(ctx, r.db, &ratings, query, args...); err != nil {
		return nil, err
	}
	return ratings, nil
}

// GetRatingSummary aggregates the ratings of a book in the database. A book
// without ratings yields a nil average, exactly like data.AverageRating.
func (r *repository) GetRatingSummary(ctx context.Context, bookID string) (data.RatingSummary, error) {
	query, args, err := r.dialect.From("ratings").
		Select(goqu.COUNT(goqu.Star()), goqu.COALESCE(goqu.SUM("value"), 0)).
		Where(goqu.C("book_id").Eq(bookID)).
		Prepared(true).ToSQL()
	if err != nil {
		return data.RatingSummary{}, err
	}
	var (
		count int
		sum   int64
	)
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&count, &sum); err != nil {
		return data.RatingSummary{}, err
	}
	return data.RatingSummary{Average: data.Mean(sum, count), Count: count}, nil
}
