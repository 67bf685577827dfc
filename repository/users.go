package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
)

type users interface {
	RegisterUser(ctx context.Context, user *data.User) error
	GetUserByID(ctx context.Context, ID string) (*data.User, error)
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	GetAllUsers(ctx context.Context, filters data.Filters) ([]*data.User, data.Metadata, error)
	UpdateUser(ctx context.Context, user *data.User) error
	DeleteUser(ctx context.Context, ID string) error
	GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error)
}

// UserSortSafeList lists the sortable columns of the user listing.
var UserSortSafeList = []string{"username", "email", "created_at"}

var userColumns = []interface{}{
	"id", "created_at", "username", "email", "password_hash", "locale", "theme", "role", "version",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, user *data.User) error {
	return row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Username,
		&user.Email,
		&user.Password.Hash,
		&user.Locale,
		&user.Theme,
		&user.Role,
		&user.Version,
	)
}

// RegisterUser registers a new user.
func (r *repository) RegisterUser(ctx context.Context, user *data.User) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	query, args, err := r.dialect.Insert("users").Rows(goqu.Record{
		"id":            id,
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.Password.Hash,
		"locale":        user.Locale,
		"theme":         user.Theme,
		"role":          user.Role,
		"created_at":    createdAt,
		"version":       1,
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
	user.ID = id
	user.CreatedAt = createdAt
	user.Version = 1
	return nil
}

// GetUserByID retrieves a user record by its ID.
func (r *repository) GetUserByID(ctx context.Context, ID string) (*data.User, error) {
	return r.getUser(ctx, goqu.C("id").Eq(ID))
}

// GetUserByUsername retrieves a user record by its username.
func (r *repository) GetUserByUsername(ctx context.Context, username string) (*data.User, error) {
	return r.getUser(ctx, goqu.C("username").Eq(username))
}

func (r *repository) getUser(ctx context.Context, where exp.Expression) (*data.User, error) {
	query, args, err := r.dialect.From("users").Select(userColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var user data.User
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = scanUser(r.db.QueryRowxContext(ctx, query, args...), &user)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// GetAllUsers retrieves a paginated list of all user records, ordered by username by default.
func (r *repository) GetAllUsers(ctx context.Context, filters data.Filters) ([]*data.User, data.Metadata, error) {
	column, asc := filters.SortColumn(), filters.Asc
	if column == "" {
		column, asc = "username", true
	}
	order := goqu.C(column).Desc()
	if asc {
		order = goqu.C(column).Asc()
	}
	countQuery, countArgs, err := r.dialect.From("users").Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, data.Metadata{}, err
	}
	query, args, err := r.dialect.From("users").
		Select(userColumns...).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(filters.Limit())).
		Offset(uint(filters.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, data.Metadata{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var totalRecords int
	if err := r.db.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&totalRecords); err != nil {
		return nil, data.Metadata{}, err
	}
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	users := []*data.User{}
	for rows.Next() {
		var user data.User
		if err := scanUser(rows, &user); err != nil {
			return nil, data.Metadata{}, err
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters)
	return users, metadata, nil
}

// UpdateUser updates a user record. The update only applies to the version that
// was read, otherwise ErrEditConflict is returned.
func (r *repository) UpdateUser(ctx context.Context, user *data.User) error {
	query, args, err := r.dialect.Update("users").Set(goqu.Record{
		"email":         user.Email,
		"password_hash": user.Password.Hash,
		"locale":        user.Locale,
		"theme":         user.Theme,
		"role":          user.Role,
		"version":       goqu.L("version + 1"),
	}).Where(goqu.Ex{"id": user.ID, "version": user.Version}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	err = r.execAffectingOne(ctx, query, args)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			return ErrEditConflict
		default:
			return err
		}
	}
	user.Version++
	return nil
}

// DeleteUser deletes a user record. Library entries, tags, ratings and tokens
// of the user are removed by the foreign key cascades.
func (r *repository) DeleteUser(ctx context.Context, ID string) error {
	if ID == "" {
		return ErrRecordNotFound
	}
	query, args, err := r.dialect.Delete("users").Where(goqu.C("id").Eq(ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// GetUserForToken returns a user record associated with a token.
func (r *repository) GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error) {
	tokenHash := sha256.Sum256([]byte(tokenPlaintext))
	columns := make([]interface{}, 0, len(userColumns))
	for _, c := range userColumns {
		columns = append(columns, goqu.I(fmt.Sprintf("users.%s", c)))
	}
	query, args, err := r.dialect.From("users").
		Join(goqu.T("tokens"), goqu.On(goqu.I("users.id").Eq(goqu.I("tokens.user_id")))).
		Select(columns...).
		Where(
			goqu.I("tokens.hash").Eq(tokenHash[:]),
			goqu.I("tokens.scope").Eq(tokenScope),
			goqu.I("tokens.expiry").Gt(time.Now().UTC()),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var user data.User
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = scanUser(r.db.QueryRowxContext(ctx, query, args...), &user)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}
