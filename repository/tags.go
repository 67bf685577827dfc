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

type tags interface {
	CreateTag(ctx context.Context, tag *data.Tag) error
	GetTag(ctx context.Context, ID, userID string) (*data.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*data.Tag, error)
	GetAllTagsForUser(ctx context.Context, userID string) ([]*data.Tag, error)
	UpdateTag(ctx context.Context, tag *data.Tag) error
	DeleteTag(ctx context.Context, ID, userID string) error
	GetTagsForUserBooks(ctx context.Context, userBookIDs []string) (map[string][]*data.Tag, error)
	ReplaceTagsForUserBook(ctx context.Context, userBookID string, tagIDs []string) error
}

var tagColumns = []interface{}{"id", "user_id", "name", "color", "created_at"}

// CreateTag creates a tag record. Tag names are unique per user.
func (r *repository) CreateTag(ctx context.Context, tag *data.Tag) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	query, args, err := r.dialect.Insert("tags").Rows(goqu.Record{
		"id":         id,
		"user_id":    tag.UserID,
		"name":       tag.Name,
		"color":      tag.Color,
		"created_at": createdAt,
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
	tag.ID = id
	tag.CreatedAt = createdAt
	return nil
}

// GetTag retrieves a tag record owned by userID.
func (r *repository) GetTag(ctx context.Context, ID, userID string) (*data.Tag, error) {
	return r.getTag(ctx, goqu.Ex{"id": ID, "user_id": userID})
}

// GetTagByName retrieves a tag record of userID by its name.
func (r *repository) GetTagByName(ctx context.Context, userID, name string) (*data.Tag, error) {
	return r.getTag(ctx, goqu.Ex{"user_id": userID, "name": name})
}

func (r *repository) getTag(ctx context.Context, where goqu.Ex) (*data.Tag, error) {
	query, args, err := r.dialect.From("tags").Select(tagColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var tag data.Tag
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = sqlx.GetContext(ctx, r.db, &tag, query, args...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &tag, nil
}

// GetAllTagsForUser retrieves every tag of a user ordered by name.
func (r *repository) GetAllTagsForUser(ctx context.Context, userID string) ([]*data.Tag, error) {
	query, args, err := r.dialect.From("tags").
		Select(tagColumns...).
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tags := []*data.Tag{}
	if err := sqlx.SelectContext(ctx, r.db, &tags, query, args...); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateTag updates the name and color of a tag record.
func (r *repository) UpdateTag(ctx context.Context, tag *data.Tag) error {
	query, args, err := r.dialect.Update("tags").
		Set(goqu.Record{"name": tag.Name, "color": tag.Color}).
		Where(goqu.Ex{"id": tag.ID, "user_id": tag.UserID}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	err = r.execAffectingOne(ctx, query, args)
	if isUniqueViolation(err) {
		return ErrDuplicateRecord
	}
	return err
}

// DeleteTag deletes a tag record together with its library entry links.
func (r *repository) DeleteTag(ctx context.Context, ID, userID string) error {
	owned := r.dialect.From("tags").Select("id").Where(goqu.Ex{"id": ID, "user_id": userID})
	query, args, err := r.dialect.Delete("user_book_tags").
		Where(goqu.C("tag_id").In(owned)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	query, args, err = r.dialect.Delete("tags").Where(goqu.Ex{"id": ID, "user_id": userID}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// GetTagsForUserBooks retrieves the tags attached to each of the given library
// entries, keyed by entry ID and ordered by tag name.
func (r *repository) GetTagsForUserBooks(ctx context.Context, userBookIDs []string) (map[string][]*data.Tag, error) {
	tagsByEntry := make(map[string][]*data.Tag)
	if len(userBookIDs) == 0 {
		return tagsByEntry, nil
	}
	query, args, err := r.dialect.From(goqu.T("user_book_tags").As("ubt")).
		Join(goqu.T("tags").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("ubt.tag_id")))).
		Select(goqu.I("ubt.user_book_id"), goqu.I("t.id"), goqu.I("t.user_id"), goqu.I("t.name"), goqu.I("t.color"), goqu.I("t.created_at")).
		Where(goqu.I("ubt.user_book_id").In(userBookIDs)).
		Order(goqu.I("t.name").Asc(), goqu.I("t.id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var links []data.TagLink
	if err := sqlx.SelectContext(ctx, r.db, &links, query, args...); err != nil {
		return nil, err
	}
	for i := range links {
		tag := links[i].Tag
		tagsByEntry[links[i].UserBookID] = append(tagsByEntry[links[i].UserBookID], &tag)
	}
	return tagsByEntry, nil
}

// ReplaceTagsForUserBook replaces the tag links of a library entry with exactly tagIDs.
func (r *repository) ReplaceTagsForUserBook(ctx context.Context, userBookID string, tagIDs []string) error {
	query, args, err := r.dialect.Delete("user_book_tags").Where(goqu.C("user_book_id").Eq(userBookID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, goqu.Record{"user_book_id": userBookID, "tag_id": tagID})
	}
	query, args, err = r.dialect.Insert("user_book_tags").Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
