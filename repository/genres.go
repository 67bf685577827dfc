package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type genres interface {
	GetGenresForBook(ctx context.Context, bookID string) ([]string, error)
	ReplaceGenresForBook(ctx context.Context, bookID string, names []string) error
}

// GetGenresForBook retrieves the genre names of a book, ordered by name.
func (r *repository) GetGenresForBook(ctx context.Context, bookID string) ([]string, error) {
	query, args, err := r.dialect.From(goqu.T("genres").As("g")).
		Join(goqu.T("book_genres").As("bg"), goqu.On(goqu.I("bg.genre_id").Eq(goqu.I("g.id")))).
		Select(goqu.I("g.name")).
		Where(goqu.I("bg.book_id").Eq(bookID)).
		Order(goqu.I("g.name").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	names := []string{}
	if err := sqlx.SelectContext(ctx, r.db, &names, query, args...); err != nil {
		return nil, err
	}
	return names, nil
}

// ReplaceGenresForBook replaces the genre set of a book with names, creating
// genres that don't exist yet.
func (r *repository) ReplaceGenresForBook(ctx context.Context, bookID string, names []string) error {
	query, args, err := r.dialect.Delete("book_genres").Where(goqu.C("book_id").Eq(bookID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		genre, err := r.getOrCreateGenre(ctx, name)
		if err != nil {
			return err
		}
		query, args, err := r.dialect.Insert("book_genres").
			Rows(goqu.Record{"book_id": bookID, "genre_id": genre.ID}).
			Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) getOrCreateGenre(ctx context.Context, name string) (*data.Genre, error) {
	query, args, err := r.dialect.From("genres").
		Select("id", "name").
		Where(goqu.C("name").Eq(name)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var genre data.Genre
	err = sqlx.GetContext(ctx, r.db, &genre, query, args...)
	switch {
	case err == nil:
		return &genre, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	genre = data.Genre{ID: uuid.NewString(), Name: name}
	query, args, err = r.dialect.Insert("genres").
		Rows(goqu.Record{"id": genre.ID, "name": genre.Name}).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, err
	}
	return &genre, nil
}
