package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

// queryTimeout bounds every statement issued by the repository.
const queryTimeout = 3 * time.Second

type Repository interface {
	books
	genres
	userBooks
	tags
	ratings
	users
	tokens
	Transact(ctx context.Context, fn func(Repository) error) error
}

// Repository defines the app's repository layer.
type repository struct {
	db      sqlx.ExtContext
	conn    *sqlx.DB
	dialect goqu.DialectWrapper
}

// New creates a new instance of Repository. The SQL dialect is picked from the
// driver the connection pool was opened with.
func New(db *sqlx.DB) *repository {
	return &repository{
		db:      db,
		conn:    db,
		dialect: goqu.Dialect(dialectFor(db.DriverName())),
	}
}

func dialectFor(driverName string) string {
	switch driverName {
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return "postgres"
	}
}

// Transact runs fn inside a database transaction. The Repository handed to fn
// issues every statement on the transaction; fn must not use any other one.
// The transaction is committed when fn returns nil and rolled back otherwise.
// Nested calls join the outer transaction.
func (r *repository) Transact(ctx context.Context, fn func(Repository) error) (err error) {
	if r.conn == nil {
		return fn(r)
	}
	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(&repository{db: tx, dialect: r.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// nullable dereferences optional values so absent ones are written as NULL.
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// utc normalizes timestamps before they are written.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
